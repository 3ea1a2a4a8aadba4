package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ppmhss/pariksha/core/admin"
)

var adminConstraints = map[string]error{
	"admin_email_key": admin.ErrEmailExists,
}

type adminRow struct {
	ID           string       `db:"id"`
	Name         string       `db:"name"`
	Email        string       `db:"email"`
	PasswordHash []byte       `db:"password_hash"`
	IsActive     bool         `db:"is_active"`
	LastLogin    sql.NullTime `db:"last_login"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

func newAdminRow(adm admin.Admin) adminRow {
	row := adminRow{
		ID:           adm.ID,
		Name:         adm.Name,
		Email:        adm.Email,
		PasswordHash: adm.PasswordHash,
		IsActive:     adm.IsActive,
		CreatedAt:    adm.CreatedAt,
		UpdatedAt:    adm.UpdatedAt,
	}
	if !adm.LastLogin.IsZero() {
		row.LastLogin = sql.NullTime{Time: adm.LastLogin, Valid: true}
	}
	return row
}

func (row adminRow) toAdmin() admin.Admin {
	adm := admin.Admin{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.LastLogin.Valid {
		adm.LastLogin = row.LastLogin.Time
	}
	return adm
}

type adminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) admin.Repository {
	return &adminRepository{db: db}
}

func (repo *adminRepository) CheckEmailUniqueness(email string) error {
	var exists bool
	err := repo.db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM "admin" WHERE email = $1)`, email)
	if err != nil {
		return err
	}
	if exists {
		return admin.ErrEmailExists
	}
	return nil
}

func (repo *adminRepository) CreateAdmin(adm admin.Admin) (admin.Admin, error) {
	adm.ID = newID()
	_, err := repo.db.NamedExec(`
		INSERT INTO "admin" (id, name, email, password_hash, is_active, last_login, created_at, updated_at)
		VALUES (:id, :name, :email, :password_hash, :is_active, :last_login, :created_at, :updated_at)`,
		newAdminRow(adm))
	if err != nil {
		return admin.Admin{}, uniqueConstraintErr(err, adminConstraints)
	}
	return adm, nil
}

func (repo *adminRepository) GetAdminByID(id string) (admin.Admin, error) {
	var row adminRow
	if err := repo.db.Get(&row, `SELECT * FROM "admin" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return admin.Admin{}, admin.ErrNotFound
		}
		return admin.Admin{}, err
	}
	return row.toAdmin(), nil
}

func (repo *adminRepository) GetAdminByEmail(email string) (admin.Admin, error) {
	var row adminRow
	if err := repo.db.Get(&row, `SELECT * FROM "admin" WHERE email = $1`, email); err != nil {
		if err == sql.ErrNoRows {
			return admin.Admin{}, admin.ErrNotFound
		}
		return admin.Admin{}, err
	}
	return row.toAdmin(), nil
}

func (repo *adminRepository) UpdateAdmin(adm admin.Admin) (admin.Admin, error) {
	res, err := repo.db.NamedExec(`
		UPDATE "admin" SET name = :name, email = :email, password_hash = :password_hash,
			is_active = :is_active, last_login = :last_login, updated_at = :updated_at
		WHERE id = :id`,
		newAdminRow(adm))
	if err != nil {
		return admin.Admin{}, uniqueConstraintErr(err, adminConstraints)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return admin.Admin{}, admin.ErrNotFound
	}
	return adm, nil
}
