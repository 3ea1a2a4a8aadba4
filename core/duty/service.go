package duty

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ppmhss/pariksha/core"
)

var (
	// errors
	ErrInvigilatorNotFound = errors.New("invigilator not found")
	ErrShortNameExists     = errors.New("an invigilator with this short name already exists")
	ErrDutyNotFound        = errors.New("duty not found")
	ErrBatchNotFound       = errors.New("duty batch not found")
	ErrRoomAssigned        = errors.New("room already has an invigilator on this date")
	ErrInvigilatorBusy     = errors.New("invigilator already has a duty on this date")
	ErrAttendanceMarked    = errors.New("attendance already marked")
	ErrAlreadyDeleted      = errors.New("invigilator is already deleted")
	ErrNotDeleted          = errors.New("invigilator is not deleted")
)

type (
	Repository interface {
		CheckShortNameUniqueness(shortName string) error
		CreateInvigilator(inv Invigilator) (Invigilator, error)
		GetInvigilatorByID(id string) (Invigilator, error)
		QueryActiveInvigilators() ([]Invigilator, error)
		UpdateInvigilator(inv Invigilator) (Invigilator, error)

		CreateDuty(d Duty) (Duty, error)
		GetDutyByID(id string) (Duty, error)
		QueryDutiesByDate(date time.Time) ([]Duty, error)
		QueryDutiesByBatch(batchID string) ([]Duty, error)
		QueryDutiesByInvigilator(invigilatorID string) ([]Duty, error)
		UpdateDuty(d Duty) (Duty, error)
		DeleteDuty(id string) error
		DeleteDutiesByBatch(batchID string) error
	}

	Service interface {
		CheckShortNameUniqueness(shortName string) error
		CreateInvigilator(ni NewInvigilator) (Invigilator, error)
		GetInvigilatorByID(id string) (Invigilator, error)
		QueryInvigilators() ([]Invigilator, error)
		UpdateInvigilator(id string, ui UpdateInvigilator) (Invigilator, error)
		SoftDeleteInvigilator(id string) (Invigilator, error)
		RestoreInvigilator(id string) (Invigilator, error)

		BulkAssign(nb NewDutyBatch, actorID string) (BatchResult, error)
		DutiesByDate(date time.Time) ([]Duty, error)
		DutiesByInvigilator(invigilatorID string) ([]Duty, error)
		MarkAttendance(dutyID string, att Attendance) (Duty, error)
		DeleteDuty(dutyID string) error
		DeleteBatch(batchID string) error
		AvailableRooms(date time.Time) ([]int, error)
	}

	service struct {
		repo    Repository
		nowFunc func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo, nowFunc: time.Now}
}

func (svc *service) CheckShortNameUniqueness(shortName string) error {
	if err := svc.repo.CheckShortNameUniqueness(shortName); err != nil {
		if err == ErrShortNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "short_name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) CreateInvigilator(ni NewInvigilator) (Invigilator, error) {
	now := svc.nowFunc().UTC()
	inv := Invigilator{
		Name:      ni.Name,
		ShortName: ni.ShortName,
		PhoneNo:   ni.PhoneNo,
		Email:     ni.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateInvigilator(inv)
}

func (svc *service) GetInvigilatorByID(id string) (Invigilator, error) {
	return svc.repo.GetInvigilatorByID(id)
}

func (svc *service) QueryInvigilators() ([]Invigilator, error) {
	return svc.repo.QueryActiveInvigilators()
}

func (svc *service) UpdateInvigilator(id string, ui UpdateInvigilator) (Invigilator, error) {
	inv, err := svc.repo.GetInvigilatorByID(id)
	if err != nil {
		return Invigilator{}, err
	}
	if inv.IsDeleted {
		return Invigilator{}, ErrInvigilatorNotFound
	}
	if err := ui.Validate(inv, svc); err != nil {
		return Invigilator{}, err
	}

	inv.Name = ui.Name
	inv.ShortName = ui.ShortName
	inv.PhoneNo = ui.PhoneNo
	inv.Email = ui.Email
	inv.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateInvigilator(inv)
}

func (svc *service) SoftDeleteInvigilator(id string) (Invigilator, error) {
	inv, err := svc.repo.GetInvigilatorByID(id)
	if err != nil {
		return Invigilator{}, err
	}
	if inv.IsDeleted {
		return Invigilator{}, ErrAlreadyDeleted
	}

	now := svc.nowFunc().UTC()
	inv.IsDeleted = true
	inv.DeletedAt = now
	inv.UpdatedAt = now
	return svc.repo.UpdateInvigilator(inv)
}

func (svc *service) RestoreInvigilator(id string) (Invigilator, error) {
	inv, err := svc.repo.GetInvigilatorByID(id)
	if err != nil {
		return Invigilator{}, err
	}
	if !inv.IsDeleted {
		return Invigilator{}, ErrNotDeleted
	}
	if err = svc.CheckShortNameUniqueness(inv.ShortName); err != nil {
		return Invigilator{}, err
	}

	now := svc.nowFunc().UTC()
	inv.IsDeleted = false
	inv.DeletedAt = time.Time{}
	inv.UpdatedAt = now
	return svc.repo.UpdateInvigilator(inv)
}

// BulkAssign creates a duty per assignment under one batch id. Items that
// collide (room or invigilator already covered that date) or reference an
// unknown invigilator are reported in Failures; the rest still go through.
func (svc *service) BulkAssign(nb NewDutyBatch, actorID string) (BatchResult, error) {
	if err := nb.Validate(); err != nil {
		return BatchResult{}, err
	}
	// cannot fail: validated above
	examDate, _ := time.Parse("2006-01-02", nb.ExamDate)

	now := svc.nowFunc().UTC()
	res := BatchResult{BatchID: uuid.New().String()}
	for _, a := range nb.Assignments {
		if err := svc.checkAssignable(a); err != nil {
			res.Failures = append(res.Failures, AssignmentFailure{
				RoomNo:        a.RoomNo,
				InvigilatorID: a.InvigilatorID,
				Error:         err.Error(),
			})
			continue
		}

		d := Duty{
			ExamDate:      examDate,
			RoomNo:        a.RoomNo,
			InvigilatorID: a.InvigilatorID,
			StartTime:     nb.StartTime,
			EndTime:       nb.EndTime,
			Status:        StatusAssigned,
			BatchID:       res.BatchID,
			CreatedBy:     actorID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		created, err := svc.repo.CreateDuty(d)
		if err != nil {
			if err == ErrRoomAssigned || err == ErrInvigilatorBusy {
				res.Failures = append(res.Failures, AssignmentFailure{
					RoomNo:        a.RoomNo,
					InvigilatorID: a.InvigilatorID,
					Error:         err.Error(),
				})
				continue
			}
			return BatchResult{}, err
		}
		res.Created = append(res.Created, created)
	}
	return res, nil
}

func (svc *service) checkAssignable(a Assignment) error {
	inv, err := svc.repo.GetInvigilatorByID(a.InvigilatorID)
	if err != nil {
		return err
	}
	if inv.IsDeleted {
		return ErrInvigilatorNotFound
	}
	return nil
}

func (svc *service) DutiesByDate(date time.Time) ([]Duty, error) {
	return svc.repo.QueryDutiesByDate(date)
}

func (svc *service) DutiesByInvigilator(invigilatorID string) ([]Duty, error) {
	return svc.repo.QueryDutiesByInvigilator(invigilatorID)
}

func (svc *service) MarkAttendance(dutyID string, att Attendance) (Duty, error) {
	if err := att.Validate(); err != nil {
		return Duty{}, err
	}
	d, err := svc.repo.GetDutyByID(dutyID)
	if err != nil {
		return Duty{}, err
	}
	d.Status = att.Status
	d.UpdatedAt = svc.nowFunc().UTC()
	return svc.repo.UpdateDuty(d)
}

func (svc *service) DeleteDuty(dutyID string) error {
	d, err := svc.repo.GetDutyByID(dutyID)
	if err != nil {
		return err
	}
	if d.AttendanceMarked() {
		return ErrAttendanceMarked
	}
	return svc.repo.DeleteDuty(d.ID)
}

// DeleteBatch removes a whole batch at once; refused when any duty in it
// already has attendance marked.
func (svc *service) DeleteBatch(batchID string) error {
	duties, err := svc.repo.QueryDutiesByBatch(batchID)
	if err != nil {
		return err
	}
	if len(duties) == 0 {
		return ErrBatchNotFound
	}
	for _, d := range duties {
		if d.AttendanceMarked() {
			return ErrAttendanceMarked
		}
	}
	return svc.repo.DeleteDutiesByBatch(batchID)
}

// AvailableRooms lists room numbers with no invigilator yet for the date.
func (svc *service) AvailableRooms(date time.Time) ([]int, error) {
	duties, err := svc.repo.QueryDutiesByDate(date)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(duties))
	for _, d := range duties {
		taken[d.RoomNo] = true
	}
	free := make([]int, 0, MaxRoomNo-len(taken))
	for room := MinRoomNo; room <= MaxRoomNo; room++ {
		if !taken[room] {
			free = append(free, room)
		}
	}
	return free, nil
}
