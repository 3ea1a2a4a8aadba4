package student

import (
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/ppmhss/pariksha/core"
)

var (
	// errors
	ErrNotFound       = errors.New("student not found")
	ErrAadhaarExists  = errors.New("a student with this Aadhaar number already exists")
	ErrSeatTaken      = errors.New("seat already taken")
	ErrCodeInUse      = errors.New("original code is already in use")
	ErrAlreadyDeleted = errors.New("student is already deleted")
	ErrNotDeleted     = errors.New("student is not deleted")

	// seat races with concurrent registrations resolve by re-picking a slot
	maxSlotAttempts = 3
)

type (
	Repository interface {
		CheckAadhaarUniqueness(aadhaarNo string) error
		CreateStudent(stu Student) (Student, error)
		GetStudentByID(id string) (Student, error)
		GetActiveStudentByCode(code string) (Student, error)
		// FilterStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.Name,
		// Student.RegistrationCode, Student.ApplicationNo or Student.SchoolName.
		FilterStudents(filter QueryFilter) ([]Student, error)
		QueryActiveStudents() ([]Student, error)
		QueryDeletedStudents() ([]Student, error)
		QueryActiveStudentsInRoom(roomNo int) ([]Student, error)
		QueryRoomOccupancy() ([]RoomOccupancy, error)
		QueryMarkedStudents() ([]Student, error)
		QueryTopPerformers(limit int) ([]Student, error)
		// MaxRegistrationSeq and MaxApplicationSeq scan issued codes (deleted
		// rewrites included) so previews never go backwards.
		MaxRegistrationSeq() (int64, error)
		MaxApplicationSeq(batch string) (int64, error)
		// NextRegistrationSeq and NextApplicationSeq increment named counters
		// atomically; a value handed out is never handed out again.
		NextRegistrationSeq() (int64, error)
		NextApplicationSeq(batch string) (int64, error)
		UpdateStudent(stu Student) (Student, error)
		UpdateStudents(students ...Student) error
		DeleteStudent(id string) error
	}

	Service interface {
		CheckAadhaarUniqueness(aadhaarNo string) error
		Register(ns NewStudent) (Student, error)
		GetByID(id string) (Student, error)
		GetByCode(code string) (Student, error)
		Filter(filter QueryFilter) ([]Student, error)
		QueryDeleted() ([]Student, error)
		Update(id string, us UpdateStudent) (Student, error)
		SoftDelete(id, actorID, reason string) (Student, error)
		Restore(id string) (Student, error)
		HardDelete(id string) error
		EnterMarks(em EnterMarks) (Student, error)
		PublishResults() ([]Student, error)
		TopPerformers(limit int) ([]Student, error)
		ResultByCode(code string) (Result, error)
		PeekNextRegistrationCode() (string, error)
		PeekNextApplicationNo() (string, error)
		RoomDistribution() ([]RoomOccupancy, error)
		Stats() (DashboardStats, error)
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		rooms   *roomLocks
		nowFunc func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		rooms:   newRoomLocks(),
		nowFunc: time.Now,
	}
}

func (svc *service) CheckAadhaarUniqueness(aadhaarNo string) error {
	if err := svc.repo.CheckAadhaarUniqueness(aadhaarNo); err != nil {
		if err == ErrAadhaarExists {
			return core.NewValidationError(err, core.FieldError{Field: "aadhaar_no", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Register(ns NewStudent) (Student, error) {
	now := svc.nowFunc().UTC()
	dob, err := time.Parse("2006-01-02", ns.DateOfBirth)
	if err != nil {
		return Student{}, core.NewValidationError(err, core.FieldError{Field: "date_of_birth", Error: "invalid date"})
	}

	regSeq, err := svc.repo.NextRegistrationSeq()
	if err != nil {
		return Student{}, err
	}
	batch := applicationNoBatch(now)
	appSeq, err := svc.repo.NextApplicationSeq(batch)
	if err != nil {
		return Student{}, err
	}

	stu := Student{
		RegistrationCode: formatRegistrationCode(regSeq),
		ApplicationNo:    formatApplicationNo(batch, appSeq),
		Name:             ns.Name,
		FatherName:       ns.FatherName,
		Gender:           ns.Gender,
		DateOfBirth:      dob,
		AadhaarNo:        ns.AadhaarNo,
		PhoneNo:          ns.PhoneNo,
		Email:            ns.Email,
		Class:            ns.Class,
		Medium:           ns.Medium,
		SchoolName:       ns.SchoolName,
		Address:          ns.Address,
		Status:           StatusRegistered,
		ResultStatus:     ResultPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	stu, err = svc.createWithSlot(stu)
	if err != nil {
		return Student{}, err
	}

	svc.sendRegistrationMail(stu)
	return stu, nil
}

// createWithSlot picks a seat and persists the student, re-picking when a
// concurrent registration grabbed the same seat first.
func (svc *service) createWithSlot(stu Student) (Student, error) {
	var err error
	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		var occs []RoomOccupancy
		if occs, err = svc.repo.QueryRoomOccupancy(); err != nil {
			return Student{}, err
		}
		slot := findAvailableSlot(occs)
		stu.RoomNo = slot.RoomNo
		stu.SeatNo = slot.SeatNo

		var created Student
		if created, err = svc.repo.CreateStudent(stu); err == nil {
			return created, nil
		}
		if err != ErrSeatTaken {
			return Student{}, err
		}
	}
	return Student{}, err
}

func (svc *service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

func (svc *service) GetByCode(code string) (Student, error) {
	return svc.repo.GetActiveStudentByCode(core.CleanString(code))
}

func (svc *service) Filter(filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.FilterStudents(filter)
}

func (svc *service) QueryDeleted() ([]Student, error) {
	return svc.repo.QueryDeletedStudents()
}

func (svc *service) Update(id string, us UpdateStudent) (Student, error) {
	stu, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}
	if stu.IsDeleted {
		return Student{}, ErrNotFound
	}
	if err := us.Validate(stu); err != nil {
		return Student{}, err
	}

	stu.Name = us.Name
	stu.FatherName = us.FatherName
	stu.Gender = us.Gender
	stu.PhoneNo = us.PhoneNo
	stu.Email = us.Email
	stu.Medium = us.Medium
	stu.SchoolName = us.SchoolName
	stu.Address = us.Address
	stu.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateStudent(stu)
}

// SoftDelete retires a student: codes are rewritten so live uniqueness frees
// up, the seat is released and the room's remaining students are renumbered
// densely. RoomNo/SeatNo are kept on the record for audit, as are the actor,
// the reason and the pre-rewrite codes.
func (svc *service) SoftDelete(id, actorID, reason string) (Student, error) {
	stu, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}
	if stu.IsDeleted {
		return Student{}, ErrAlreadyDeleted
	}

	lock := svc.rooms.get(stu.RoomNo)
	lock.Lock()
	defer lock.Unlock()

	now := svc.nowFunc().UTC()
	stu.IsDeleted = true
	stu.DeletedAt = now
	stu.DeletedBy = actorID
	stu.DeleteReason = core.CleanString(reason)
	stu.UpdatedAt = now
	stu.OriginalRegistrationCode = stu.RegistrationCode
	stu.OriginalApplicationNo = stu.ApplicationNo
	stu.RegistrationCode = deletedCode(stu.RegistrationCode, now)
	stu.ApplicationNo = deletedCode(stu.ApplicationNo, now)
	if stu, err = svc.repo.UpdateStudent(stu); err != nil {
		return Student{}, err
	}

	remaining, err := svc.repo.QueryActiveStudentsInRoom(stu.RoomNo)
	if err != nil {
		return Student{}, err
	}
	if changed := reassignSeats(remaining); len(changed) > 0 {
		for i := range changed {
			changed[i].UpdatedAt = now
		}
		if err = svc.repo.UpdateStudents(changed...); err != nil {
			return Student{}, err
		}
	}
	return stu, nil
}

// Restore brings a soft-deleted student back with their original codes and a
// freshly allocated seat; the old seat is long gone. The stored pre-rewrite
// codes are authoritative; stripping the DEL rewrite is a fallback for rows
// that predate them.
func (svc *service) Restore(id string) (Student, error) {
	stu, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return Student{}, err
	}
	if !stu.IsDeleted {
		return Student{}, ErrNotDeleted
	}
	if err = svc.CheckAadhaarUniqueness(stu.AadhaarNo); err != nil {
		return Student{}, err
	}

	regCode := stu.OriginalRegistrationCode
	if regCode == "" {
		regCode = OriginalCode(stu.RegistrationCode)
	}
	appNo := stu.OriginalApplicationNo
	if appNo == "" {
		appNo = OriginalCode(stu.ApplicationNo)
	}
	if _, err = svc.repo.GetActiveStudentByCode(regCode); err == nil {
		return Student{}, ErrCodeInUse
	} else if err != ErrNotFound {
		return Student{}, err
	}

	now := svc.nowFunc().UTC()
	stu.IsDeleted = false
	stu.DeletedAt = time.Time{}
	stu.DeletedBy = ""
	stu.DeleteReason = ""
	stu.UpdatedAt = now
	stu.RegistrationCode = regCode
	stu.ApplicationNo = appNo
	stu.OriginalRegistrationCode = ""
	stu.OriginalApplicationNo = ""

	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		var occs []RoomOccupancy
		if occs, err = svc.repo.QueryRoomOccupancy(); err != nil {
			return Student{}, err
		}
		slot := findAvailableSlot(occs)
		stu.RoomNo = slot.RoomNo
		stu.SeatNo = slot.SeatNo

		var restored Student
		if restored, err = svc.repo.UpdateStudent(stu); err == nil {
			return restored, nil
		}
		if err != ErrSeatTaken {
			return Student{}, err
		}
	}
	return Student{}, err
}

// HardDelete permanently removes a student; only soft-deleted records qualify.
// The room is renumbered afterwards, a no-op when soft delete already
// compacted it.
func (svc *service) HardDelete(id string) error {
	stu, err := svc.repo.GetStudentByID(id)
	if err != nil {
		return err
	}
	if !stu.IsDeleted {
		return ErrNotDeleted
	}

	lock := svc.rooms.get(stu.RoomNo)
	lock.Lock()
	defer lock.Unlock()

	if err = svc.repo.DeleteStudent(stu.ID); err != nil {
		return err
	}
	remaining, err := svc.repo.QueryActiveStudentsInRoom(stu.RoomNo)
	if err != nil {
		return err
	}
	if changed := reassignSeats(remaining); len(changed) > 0 {
		now := svc.nowFunc().UTC()
		for i := range changed {
			changed[i].UpdatedAt = now
		}
		return svc.repo.UpdateStudents(changed...)
	}
	return nil
}

func (svc *service) EnterMarks(em EnterMarks) (Student, error) {
	stu, err := svc.repo.GetActiveStudentByCode(em.RegistrationCode)
	if err != nil {
		return Student{}, err
	}
	if stu.Mark != nil && *stu.Mark == em.Mark {
		return stu, nil
	}
	mark := em.Mark
	stu.Mark = &mark
	stu.Status = StatusExamCompleted
	if mark >= PassMark {
		stu.ResultStatus = ResultPassed
	} else {
		stu.ResultStatus = ResultFailed
	}
	stu.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateStudent(stu)
}

// PublishResults (re)ranks every candidate with a recorded mark and persists
// the outcome. Safe to run again after late mark corrections.
func (svc *service) PublishResults() ([]Student, error) {
	candidates, err := svc.repo.QueryMarkedStudents()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	now := svc.nowFunc().UTC()
	ranked := computeRanks(candidates)
	for i := range ranked {
		ranked[i].UpdatedAt = now
	}
	if err = svc.repo.UpdateStudents(ranked...); err != nil {
		return nil, err
	}
	return ranked, nil
}

func (svc *service) TopPerformers(limit int) ([]Student, error) {
	return svc.repo.QueryTopPerformers(limit)
}

func (svc *service) ResultByCode(code string) (Result, error) {
	stu, err := svc.repo.GetActiveStudentByCode(core.CleanString(code))
	if err != nil {
		return Result{}, err
	}
	res := Result{
		RegistrationCode: stu.RegistrationCode,
		Name:             stu.Name,
		Class:            stu.Class,
		ResultStatus:     stu.ResultStatus,
	}
	if stu.Status == StatusResultPublished {
		res.Mark = stu.Mark
		res.Rank = stu.Rank
		res.Scholarship = stu.Scholarship
		res.IASCoaching = stu.IASCoaching
	} else {
		res.ResultStatus = ResultPending
	}
	return res, nil
}

// PeekNextRegistrationCode previews the code the next registration would most
// likely get. Read-only; issuance itself goes through the atomic counter.
func (svc *service) PeekNextRegistrationCode() (string, error) {
	maxSeq, err := svc.repo.MaxRegistrationSeq()
	if err != nil {
		return "", err
	}
	if maxSeq < firstRegistrationSeq {
		return formatRegistrationCode(firstRegistrationSeq), nil
	}
	return formatRegistrationCode(maxSeq + 1), nil
}

func (svc *service) PeekNextApplicationNo() (string, error) {
	batch := applicationNoBatch(svc.nowFunc().UTC())
	maxSeq, err := svc.repo.MaxApplicationSeq(batch)
	if err != nil {
		return "", err
	}
	return formatApplicationNo(batch, maxSeq+1), nil
}

func (svc *service) RoomDistribution() ([]RoomOccupancy, error) {
	return svc.repo.QueryRoomOccupancy()
}

func (svc *service) Stats() (DashboardStats, error) {
	active, err := svc.repo.QueryActiveStudents()
	if err != nil {
		return DashboardStats{}, err
	}
	deleted, err := svc.repo.QueryDeletedStudents()
	if err != nil {
		return DashboardStats{}, err
	}

	stats := DashboardStats{
		TotalActive:  len(active),
		TotalDeleted: len(deleted),
		ByClass:      make(map[int]int),
		ByMedium:     make(map[string]int),
	}
	rooms := make(map[int]bool)
	for _, stu := range active {
		rooms[stu.RoomNo] = true
		stats.ByClass[stu.Class]++
		stats.ByMedium[stu.Medium]++
		if stu.HasMark() {
			stats.ResultsEntered++
		}
		switch stu.ResultStatus {
		case ResultPassed:
			stats.Passed++
		case ResultFailed:
			stats.Failed++
		}
	}
	stats.RoomsInUse = len(rooms)
	return stats, nil
}

func (svc *service) sendRegistrationMail(stu Student) {
	if stu.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject:      fmt.Sprintf("Registration Confirmed - %s", stu.RegistrationCode),
		TemplateName: "registration-success",
		TemplateData: struct {
			Name             string
			RegistrationCode string
			ApplicationNo    string
			RoomNo           int
			SeatNo           int
			AppName          string
		}{stu.Name, stu.RegistrationCode, stu.ApplicationNo, stu.RoomNo, stu.SeatNo, core.Conf.AppName},
	})
}
