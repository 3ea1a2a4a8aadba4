package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ppmhss/pariksha/core/duty"
)

var (
	invigilatorConstraints = map[string]error{
		"invigilator_short_name_key": duty.ErrShortNameExists,
	}
	dutyConstraints = map[string]error{
		"duty_exam_date_room_no_key":        duty.ErrRoomAssigned,
		"duty_exam_date_invigilator_id_key": duty.ErrInvigilatorBusy,
	}
)

type invigilatorRow struct {
	ID        string       `db:"id"`
	Name      string       `db:"name"`
	ShortName string       `db:"short_name"`
	PhoneNo   string       `db:"phone_no"`
	Email     string       `db:"email"`
	IsDeleted bool         `db:"is_deleted"`
	DeletedAt sql.NullTime `db:"deleted_at"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func newInvigilatorRow(inv duty.Invigilator) invigilatorRow {
	row := invigilatorRow{
		ID:        inv.ID,
		Name:      inv.Name,
		ShortName: inv.ShortName,
		PhoneNo:   inv.PhoneNo,
		Email:     inv.Email,
		IsDeleted: inv.IsDeleted,
		CreatedAt: inv.CreatedAt,
		UpdatedAt: inv.UpdatedAt,
	}
	if !inv.DeletedAt.IsZero() {
		row.DeletedAt = sql.NullTime{Time: inv.DeletedAt, Valid: true}
	}
	return row
}

func (row invigilatorRow) toInvigilator() duty.Invigilator {
	inv := duty.Invigilator{
		ID:        row.ID,
		Name:      row.Name,
		ShortName: row.ShortName,
		PhoneNo:   row.PhoneNo,
		Email:     row.Email,
		IsDeleted: row.IsDeleted,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		inv.DeletedAt = row.DeletedAt.Time
	}
	return inv
}

type dutyRow struct {
	ID            string    `db:"id"`
	ExamDate      time.Time `db:"exam_date"`
	RoomNo        int       `db:"room_no"`
	InvigilatorID string    `db:"invigilator_id"`
	StartTime     string    `db:"start_time"`
	EndTime       string    `db:"end_time"`
	Status        string    `db:"status"`
	BatchID       string    `db:"batch_id"`
	CreatedBy     string    `db:"created_by"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func newDutyRow(d duty.Duty) dutyRow {
	return dutyRow{
		ID:            d.ID,
		ExamDate:      d.ExamDate,
		RoomNo:        d.RoomNo,
		InvigilatorID: d.InvigilatorID,
		StartTime:     d.StartTime,
		EndTime:       d.EndTime,
		Status:        d.Status,
		BatchID:       d.BatchID,
		CreatedBy:     d.CreatedBy,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (row dutyRow) toDuty() duty.Duty {
	return duty.Duty{
		ID:            row.ID,
		ExamDate:      row.ExamDate,
		RoomNo:        row.RoomNo,
		InvigilatorID: row.InvigilatorID,
		StartTime:     row.StartTime,
		EndTime:       row.EndTime,
		Status:        row.Status,
		BatchID:       row.BatchID,
		CreatedBy:     row.CreatedBy,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDuties(rows []dutyRow) []duty.Duty {
	duties := make([]duty.Duty, 0, len(rows))
	for _, row := range rows {
		duties = append(duties, row.toDuty())
	}
	return duties
}

type dutyRepository struct {
	db *sqlx.DB
}

func NewDutyRepository(db *sqlx.DB) duty.Repository {
	return &dutyRepository{db: db}
}

func (repo *dutyRepository) CheckShortNameUniqueness(shortName string) error {
	var exists bool
	err := repo.db.Get(&exists,
		`SELECT EXISTS(SELECT 1 FROM "invigilator" WHERE short_name = $1 AND NOT is_deleted)`, shortName)
	if err != nil {
		return err
	}
	if exists {
		return duty.ErrShortNameExists
	}
	return nil
}

func (repo *dutyRepository) CreateInvigilator(inv duty.Invigilator) (duty.Invigilator, error) {
	inv.ID = newID()
	_, err := repo.db.NamedExec(`
		INSERT INTO "invigilator" (id, name, short_name, phone_no, email, is_deleted, deleted_at, created_at, updated_at)
		VALUES (:id, :name, :short_name, :phone_no, :email, :is_deleted, :deleted_at, :created_at, :updated_at)`,
		newInvigilatorRow(inv))
	if err != nil {
		return duty.Invigilator{}, uniqueConstraintErr(err, invigilatorConstraints)
	}
	return inv, nil
}

func (repo *dutyRepository) GetInvigilatorByID(id string) (duty.Invigilator, error) {
	var row invigilatorRow
	if err := repo.db.Get(&row, `SELECT * FROM "invigilator" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return duty.Invigilator{}, duty.ErrInvigilatorNotFound
		}
		return duty.Invigilator{}, err
	}
	return row.toInvigilator(), nil
}

func (repo *dutyRepository) QueryActiveInvigilators() ([]duty.Invigilator, error) {
	var rows []invigilatorRow
	err := repo.db.Select(&rows, `SELECT * FROM "invigilator" WHERE NOT is_deleted ORDER BY short_name`)
	if err != nil {
		return nil, err
	}
	invs := make([]duty.Invigilator, 0, len(rows))
	for _, row := range rows {
		invs = append(invs, row.toInvigilator())
	}
	return invs, nil
}

func (repo *dutyRepository) UpdateInvigilator(inv duty.Invigilator) (duty.Invigilator, error) {
	res, err := repo.db.NamedExec(`
		UPDATE "invigilator" SET name = :name, short_name = :short_name, phone_no = :phone_no,
			email = :email, is_deleted = :is_deleted, deleted_at = :deleted_at, updated_at = :updated_at
		WHERE id = :id`,
		newInvigilatorRow(inv))
	if err != nil {
		return duty.Invigilator{}, uniqueConstraintErr(err, invigilatorConstraints)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return duty.Invigilator{}, duty.ErrInvigilatorNotFound
	}
	return inv, nil
}

func (repo *dutyRepository) CreateDuty(d duty.Duty) (duty.Duty, error) {
	d.ID = newID()
	_, err := repo.db.NamedExec(`
		INSERT INTO "duty" (id, exam_date, room_no, invigilator_id, start_time, end_time, status, batch_id, created_by, created_at, updated_at)
		VALUES (:id, :exam_date, :room_no, :invigilator_id, :start_time, :end_time, :status, :batch_id, :created_by, :created_at, :updated_at)`,
		newDutyRow(d))
	if err != nil {
		return duty.Duty{}, uniqueConstraintErr(err, dutyConstraints)
	}
	return d, nil
}

func (repo *dutyRepository) GetDutyByID(id string) (duty.Duty, error) {
	var row dutyRow
	if err := repo.db.Get(&row, `SELECT * FROM "duty" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return duty.Duty{}, duty.ErrDutyNotFound
		}
		return duty.Duty{}, err
	}
	return row.toDuty(), nil
}

func (repo *dutyRepository) QueryDutiesByDate(date time.Time) ([]duty.Duty, error) {
	var rows []dutyRow
	err := repo.db.Select(&rows, `SELECT * FROM "duty" WHERE exam_date = $1 ORDER BY room_no`, date)
	if err != nil {
		return nil, err
	}
	return toDuties(rows), nil
}

func (repo *dutyRepository) QueryDutiesByBatch(batchID string) ([]duty.Duty, error) {
	var rows []dutyRow
	err := repo.db.Select(&rows, `SELECT * FROM "duty" WHERE batch_id = $1 ORDER BY room_no`, batchID)
	if err != nil {
		return nil, err
	}
	return toDuties(rows), nil
}

func (repo *dutyRepository) QueryDutiesByInvigilator(invigilatorID string) ([]duty.Duty, error) {
	var rows []dutyRow
	err := repo.db.Select(&rows,
		`SELECT * FROM "duty" WHERE invigilator_id = $1 ORDER BY exam_date, room_no`, invigilatorID)
	if err != nil {
		return nil, err
	}
	return toDuties(rows), nil
}

func (repo *dutyRepository) UpdateDuty(d duty.Duty) (duty.Duty, error) {
	res, err := repo.db.NamedExec(`
		UPDATE "duty" SET exam_date = :exam_date, room_no = :room_no, invigilator_id = :invigilator_id,
			start_time = :start_time, end_time = :end_time, status = :status, updated_at = :updated_at
		WHERE id = :id`,
		newDutyRow(d))
	if err != nil {
		return duty.Duty{}, uniqueConstraintErr(err, dutyConstraints)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return duty.Duty{}, duty.ErrDutyNotFound
	}
	return d, nil
}

func (repo *dutyRepository) DeleteDuty(id string) error {
	_, err := repo.db.Exec(`DELETE FROM "duty" WHERE id = $1`, id)
	return err
}

func (repo *dutyRepository) DeleteDutiesByBatch(batchID string) error {
	_, err := repo.db.Exec(`DELETE FROM "duty" WHERE batch_id = $1`, batchID)
	return err
}
