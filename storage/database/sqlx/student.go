package sqlxrepos

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/student"
)

var studentConstraints = map[string]error{
	"student_room_seat_key":         student.ErrSeatTaken,
	"student_aadhaar_no_key":        student.ErrAadhaarExists,
	"student_registration_code_key": student.ErrCodeInUse,
	"student_application_no_key":    student.ErrCodeInUse,
}

type studentRow struct {
	ID               string         `db:"id"`
	RegistrationCode string         `db:"registration_code"`
	ApplicationNo    string         `db:"application_no"`
	Name             string         `db:"name"`
	FatherName       string         `db:"father_name"`
	Gender           string         `db:"gender"`
	DateOfBirth      time.Time      `db:"date_of_birth"`
	AadhaarNo        string         `db:"aadhaar_no"`
	PhoneNo          string         `db:"phone_no"`
	Email            string         `db:"email"`
	Class            int            `db:"class"`
	Medium           string         `db:"medium"`
	SchoolName       string         `db:"school_name"`
	HouseName        string         `db:"house_name"`
	Street           string         `db:"street"`
	Place            string         `db:"place"`
	Village          string         `db:"village"`
	PostOffice       string         `db:"post_office"`
	PinCode          string         `db:"pin_code"`
	District         string         `db:"district"`
	LocalBodyType    string         `db:"local_body_type"`
	LocalBodyName    string         `db:"local_body_name"`
	RoomNo           int            `db:"room_no"`
	SeatNo           int            `db:"seat_no"`
	Status           string         `db:"status"`
	Mark             sql.NullInt64  `db:"mark"`
	Rank             sql.NullInt64  `db:"rank"`
	Scholarship      string         `db:"scholarship"`
	IASCoaching      bool           `db:"ias_coaching"`
	ResultStatus     string         `db:"result_status"`
	IsDeleted        bool           `db:"is_deleted"`
	DeletedAt        sql.NullTime   `db:"deleted_at"`
	DeletedBy        string         `db:"deleted_by"`
	DeleteReason     string         `db:"delete_reason"`
	OrigRegCode      string         `db:"original_registration_code"`
	OrigAppNo        string         `db:"original_application_no"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

func newStudentRow(stu student.Student) studentRow {
	row := studentRow{
		ID:               stu.ID,
		RegistrationCode: stu.RegistrationCode,
		ApplicationNo:    stu.ApplicationNo,
		Name:             stu.Name,
		FatherName:       stu.FatherName,
		Gender:           stu.Gender,
		DateOfBirth:      stu.DateOfBirth,
		AadhaarNo:        stu.AadhaarNo,
		PhoneNo:          stu.PhoneNo,
		Email:            stu.Email,
		Class:            stu.Class,
		Medium:           stu.Medium,
		SchoolName:       stu.SchoolName,
		HouseName:        stu.Address.HouseName,
		Street:           stu.Address.Street,
		Place:            stu.Address.Place,
		Village:          stu.Address.Village,
		PostOffice:       stu.Address.PostOffice,
		PinCode:          stu.Address.PinCode,
		District:         stu.Address.District,
		LocalBodyType:    stu.Address.LocalBodyType,
		LocalBodyName:    stu.Address.LocalBodyName,
		RoomNo:           stu.RoomNo,
		SeatNo:           stu.SeatNo,
		Status:           stu.Status,
		Scholarship:      stu.Scholarship,
		IASCoaching:      stu.IASCoaching,
		ResultStatus:     stu.ResultStatus,
		IsDeleted:        stu.IsDeleted,
		DeletedBy:        stu.DeletedBy,
		DeleteReason:     stu.DeleteReason,
		OrigRegCode:      stu.OriginalRegistrationCode,
		OrigAppNo:        stu.OriginalApplicationNo,
		CreatedAt:        stu.CreatedAt,
		UpdatedAt:        stu.UpdatedAt,
	}
	if stu.Mark != nil {
		row.Mark = sql.NullInt64{Int64: int64(*stu.Mark), Valid: true}
	}
	if stu.Rank != nil {
		row.Rank = sql.NullInt64{Int64: int64(*stu.Rank), Valid: true}
	}
	if !stu.DeletedAt.IsZero() {
		row.DeletedAt = sql.NullTime{Time: stu.DeletedAt, Valid: true}
	}
	return row
}

func (row studentRow) toStudent() student.Student {
	stu := student.Student{
		ID:               row.ID,
		RegistrationCode: row.RegistrationCode,
		ApplicationNo:    row.ApplicationNo,
		Name:             row.Name,
		FatherName:       row.FatherName,
		Gender:           row.Gender,
		DateOfBirth:      row.DateOfBirth,
		AadhaarNo:        row.AadhaarNo,
		PhoneNo:          row.PhoneNo,
		Email:            row.Email,
		Class:            row.Class,
		Medium:           row.Medium,
		SchoolName:       row.SchoolName,
		Address: student.Address{
			HouseName:     row.HouseName,
			Street:        row.Street,
			Place:         row.Place,
			Village:       row.Village,
			PostOffice:    row.PostOffice,
			PinCode:       row.PinCode,
			District:      row.District,
			LocalBodyType: row.LocalBodyType,
			LocalBodyName: row.LocalBodyName,
		},
		RoomNo:                   row.RoomNo,
		SeatNo:                   row.SeatNo,
		Status:                   row.Status,
		Scholarship:              row.Scholarship,
		IASCoaching:              row.IASCoaching,
		ResultStatus:             row.ResultStatus,
		IsDeleted:                row.IsDeleted,
		DeletedBy:                row.DeletedBy,
		DeleteReason:             row.DeleteReason,
		OriginalRegistrationCode: row.OrigRegCode,
		OriginalApplicationNo:    row.OrigAppNo,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}
	if row.Mark.Valid {
		mark := int(row.Mark.Int64)
		stu.Mark = &mark
	}
	if row.Rank.Valid {
		rank := int(row.Rank.Int64)
		stu.Rank = &rank
	}
	if row.DeletedAt.Valid {
		stu.DeletedAt = row.DeletedAt.Time
	}
	return stu
}

func toStudents(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students
}

const insertStudentSQL = `
INSERT INTO "student" (
	id, registration_code, application_no, name, father_name, gender, date_of_birth, aadhaar_no, phone_no,
	email, class, medium, school_name, house_name, street, place, village, post_office, pin_code, district,
	local_body_type, local_body_name, room_no, seat_no, status, mark, rank, scholarship, ias_coaching,
	result_status, is_deleted, deleted_at, deleted_by, delete_reason, original_registration_code,
	original_application_no, created_at, updated_at
) VALUES (
	:id, :registration_code, :application_no, :name, :father_name, :gender, :date_of_birth, :aadhaar_no, :phone_no,
	:email, :class, :medium, :school_name, :house_name, :street, :place, :village, :post_office, :pin_code, :district,
	:local_body_type, :local_body_name, :room_no, :seat_no, :status, :mark, :rank, :scholarship, :ias_coaching,
	:result_status, :is_deleted, :deleted_at, :deleted_by, :delete_reason, :original_registration_code,
	:original_application_no, :created_at, :updated_at
)`

const updateStudentSQL = `
UPDATE "student" SET
	registration_code = :registration_code, application_no = :application_no, name = :name,
	father_name = :father_name, gender = :gender, date_of_birth = :date_of_birth,
	aadhaar_no = :aadhaar_no, phone_no = :phone_no, email = :email, class = :class, medium = :medium,
	school_name = :school_name, house_name = :house_name, street = :street, place = :place,
	village = :village, post_office = :post_office, pin_code = :pin_code, district = :district,
	local_body_type = :local_body_type, local_body_name = :local_body_name, room_no = :room_no,
	seat_no = :seat_no, status = :status, mark = :mark, rank = :rank, scholarship = :scholarship,
	ias_coaching = :ias_coaching, result_status = :result_status, is_deleted = :is_deleted,
	deleted_at = :deleted_at, deleted_by = :deleted_by, delete_reason = :delete_reason,
	original_registration_code = :original_registration_code,
	original_application_no = :original_application_no, updated_at = :updated_at
WHERE id = :id`

// orderableColumns guards ORDER BY against injection; anything else is ignored.
var orderableColumns = map[string]bool{
	"registration_code": true,
	"application_no":    true,
	"name":              true,
	"class":             true,
	"room_no":           true,
	"seat_no":           true,
	"mark":              true,
	"rank":              true,
	"created_at":        true,
}

func orderByClause(orderings []core.DBOrdering) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if orderableColumns[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return ` ORDER BY registration_code`
	}
	return ` ORDER BY ` + strings.Join(clauses, ", ")
}

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckAadhaarUniqueness(aadhaarNo string) error {
	var exists bool
	err := repo.db.Get(&exists,
		`SELECT EXISTS(SELECT 1 FROM "student" WHERE aadhaar_no = $1 AND NOT is_deleted)`, aadhaarNo)
	if err != nil {
		return err
	}
	if exists {
		return student.ErrAadhaarExists
	}
	return nil
}

func (repo *studentRepository) CreateStudent(stu student.Student) (student.Student, error) {
	stu.ID = newID()
	if _, err := repo.db.NamedExec(insertStudentSQL, newStudentRow(stu)); err != nil {
		return student.Student{}, uniqueConstraintErr(err, studentConstraints)
	}
	return stu, nil
}

func (repo *studentRepository) GetStudentByID(id string) (student.Student, error) {
	var row studentRow
	if err := repo.db.Get(&row, `SELECT * FROM "student" WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) GetActiveStudentByCode(code string) (student.Student, error) {
	var row studentRow
	err := repo.db.Get(&row, `SELECT * FROM "student" WHERE registration_code = $1 AND NOT is_deleted`, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return student.Student{}, student.ErrNotFound
		}
		return student.Student{}, err
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) FilterStudents(filter student.QueryFilter) ([]student.Student, error) {
	where := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.IsDeleted != nil {
		where = append(where, "is_deleted = "+arg(*filter.IsDeleted))
	} else {
		where = append(where, "NOT is_deleted")
	}
	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE %[1]s OR registration_code ILIKE %[1]s OR application_no ILIKE %[1]s OR school_name ILIKE %[1]s)", p))
	}
	if filter.Class != 0 {
		where = append(where, "class = "+arg(filter.Class))
	}
	if filter.Medium != "" {
		where = append(where, "medium = "+arg(filter.Medium))
	}
	if filter.RoomNo != 0 {
		where = append(where, "room_no = "+arg(filter.RoomNo))
	}
	if filter.Status != "" {
		where = append(where, "status = "+arg(filter.Status))
	}

	q := `SELECT * FROM "student" WHERE ` + strings.Join(where, " AND ") + orderByClause(filter.Orderings)
	var rows []studentRow
	if err := repo.db.Select(&rows, q, args...); err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) QueryActiveStudents() ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM "student" WHERE NOT is_deleted ORDER BY registration_code`)
	if err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) QueryDeletedStudents() ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `SELECT * FROM "student" WHERE is_deleted ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) QueryActiveStudentsInRoom(roomNo int) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows,
		`SELECT * FROM "student" WHERE room_no = $1 AND NOT is_deleted ORDER BY seat_no`, roomNo)
	if err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) QueryRoomOccupancy() ([]student.RoomOccupancy, error) {
	rows, err := repo.db.Query(`
		SELECT room_no, COUNT(*), ARRAY_AGG(seat_no ORDER BY seat_no)
		FROM "student" WHERE NOT is_deleted
		GROUP BY room_no ORDER BY room_no`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	occs := make([]student.RoomOccupancy, 0)
	for rows.Next() {
		var occ student.RoomOccupancy
		var seats pq.Int64Array
		if err = rows.Scan(&occ.RoomNo, &occ.Occupied, &seats); err != nil {
			return nil, err
		}
		occ.SeatsUsed = make([]int, 0, len(seats))
		for _, s := range seats {
			occ.SeatsUsed = append(occ.SeatsUsed, int(s))
		}
		occs = append(occs, occ)
	}
	return occs, rows.Err()
}

func (repo *studentRepository) QueryMarkedStudents() ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows, `
		SELECT * FROM "student" WHERE mark IS NOT NULL AND NOT is_deleted
		ORDER BY mark DESC, created_at, registration_code`)
	if err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

func (repo *studentRepository) QueryTopPerformers(limit int) ([]student.Student, error) {
	var rows []studentRow
	err := repo.db.Select(&rows,
		`SELECT * FROM "student" WHERE rank IS NOT NULL AND NOT is_deleted ORDER BY rank, registration_code LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return toStudents(rows), nil
}

// MaxRegistrationSeq parses issued codes in Go: deleted rewrites bury the
// numeric part mid-string where SQL can't cheaply reach it.
func (repo *studentRepository) MaxRegistrationSeq() (int64, error) {
	var codes []string
	if err := repo.db.Select(&codes, `SELECT registration_code FROM "student"`); err != nil {
		return 0, err
	}
	var max int64
	for _, code := range codes {
		if seq, ok := student.ParseRegistrationSeq(student.OriginalCode(code)); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (repo *studentRepository) MaxApplicationSeq(batch string) (int64, error) {
	var appNos []string
	if err := repo.db.Select(&appNos, `SELECT application_no FROM "student"`); err != nil {
		return 0, err
	}
	var max int64
	for _, appNo := range appNos {
		if seq, ok := student.ParseApplicationSeq(batch, student.OriginalCode(appNo)); ok && seq > max {
			max = seq
		}
	}
	return max, nil
}

func (repo *studentRepository) NextRegistrationSeq() (int64, error) {
	return repo.nextSeq("registration", 1000)
}

func (repo *studentRepository) NextApplicationSeq(batch string) (int64, error) {
	return repo.nextSeq(batch, 1)
}

// nextSeq bumps a named counter atomically; concurrent callers never see the
// same value twice.
func (repo *studentRepository) nextSeq(name string, first int64) (int64, error) {
	var value int64
	err := repo.db.Get(&value, `
		INSERT INTO "sequence" (name, value) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET value = "sequence".value + 1
		RETURNING value`, name, first)
	return value, err
}

func (repo *studentRepository) UpdateStudent(stu student.Student) (student.Student, error) {
	res, err := repo.db.NamedExec(updateStudentSQL, newStudentRow(stu))
	if err != nil {
		return student.Student{}, uniqueConstraintErr(err, studentConstraints)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return stu, nil
}

// UpdateStudents applies updates in one transaction, in the order given.
// Seat renumbering relies on that order: lower seats free up first.
func (repo *studentRepository) UpdateStudents(students ...student.Student) error {
	tx, err := repo.db.Beginx()
	if err != nil {
		return err
	}
	for _, stu := range students {
		if _, err = tx.NamedExec(updateStudentSQL, newStudentRow(stu)); err != nil {
			_ = tx.Rollback()
			return uniqueConstraintErr(err, studentConstraints)
		}
	}
	return tx.Commit()
}

func (repo *studentRepository) DeleteStudent(id string) error {
	_, err := repo.db.Exec(`DELETE FROM "student" WHERE id = $1`, id)
	return err
}
