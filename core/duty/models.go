package duty

import (
	"strings"
	"time"

	"github.com/ppmhss/pariksha/core"
)

// Rooms are numbered 1..100; an exam day never uses more.
const (
	MinRoomNo = 1
	MaxRoomNo = 100
)

// Duty statuses
const (
	StatusAssigned = "Assigned"
	StatusPresent  = "Present"
	StatusAbsent   = "Absent"
)

type Invigilator struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ShortName string    `json:"short_name"`
	PhoneNo   string    `json:"phone_no"`
	Email     string    `json:"email"`
	IsDeleted bool      `json:"is_deleted"`
	DeletedAt time.Time `json:"deleted_at,omitempty"` // UTC
	CreatedAt time.Time `json:"created_at"`           // UTC
	UpdatedAt time.Time `json:"updated_at"`           // UTC
}

// NewInvigilator contains information needed to create a new Invigilator.
type NewInvigilator struct {
	Name      string `json:"name" validate:"required"`
	ShortName string `json:"short_name" validate:"required,max=10"`
	PhoneNo   string `json:"phone_no" validate:"required,len=10,numeric"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func (ni *NewInvigilator) Validate(svc Service) error {
	ni.Name = core.CleanString(ni.Name)
	ni.ShortName = strings.ToUpper(core.CleanString(ni.ShortName))
	ni.Email = core.CleanString(ni.Email, true /* lower */)

	if err := core.Validate.Struct(ni); err != nil {
		return err
	}
	return svc.CheckShortNameUniqueness(ni.ShortName)
}

// UpdateInvigilator defines what information may be provided to modify an
// existing Invigilator.
type UpdateInvigilator struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name" validate:"omitempty,max=10"`
	PhoneNo   string `json:"phone_no" validate:"omitempty,len=10,numeric"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func (ui *UpdateInvigilator) Validate(orig Invigilator, svc Service) error {
	name := core.CleanString(ui.Name)
	if name != "" {
		ui.Name = name
	} else {
		ui.Name = orig.Name
	}
	short := strings.ToUpper(core.CleanString(ui.ShortName))
	if short != "" {
		ui.ShortName = short
	} else {
		ui.ShortName = orig.ShortName
	}
	if ui.PhoneNo == "" {
		ui.PhoneNo = orig.PhoneNo
	}
	email := core.CleanString(ui.Email, true /* lower */)
	if email != "" {
		ui.Email = email
	} else {
		ui.Email = orig.Email
	}

	if err := core.Validate.Struct(ui); err != nil {
		return err
	}
	if ui.ShortName != orig.ShortName {
		return svc.CheckShortNameUniqueness(ui.ShortName)
	}
	return nil
}

type Duty struct {
	ID            string    `json:"id"`
	ExamDate      time.Time `json:"exam_date"`
	RoomNo        int       `json:"room_no"`
	InvigilatorID string    `json:"invigilator_id"`
	StartTime     string    `json:"start_time"`
	EndTime       string    `json:"end_time"`
	Status        string    `json:"status"`
	BatchID       string    `json:"batch_id"`
	CreatedBy     string    `json:"created_by,omitempty"` // admin ID
	CreatedAt     time.Time `json:"created_at"`           // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (d *Duty) AttendanceMarked() bool {
	return d.Status == StatusPresent || d.Status == StatusAbsent
}

// Assignment pairs a room with the invigilator covering it.
type Assignment struct {
	RoomNo        int    `json:"room_no" validate:"required,min=1,max=100"`
	InvigilatorID string `json:"invigilator_id" validate:"required"`
}

// NewDutyBatch assigns several rooms for one exam date in a single call.
type NewDutyBatch struct {
	ExamDate    string       `json:"exam_date" validate:"required,datetime=2006-01-02"`
	StartTime   string       `json:"start_time" validate:"required,hhmm"`
	EndTime     string       `json:"end_time" validate:"required,hhmm"`
	Assignments []Assignment `json:"assignments" validate:"required,min=1,dive"`
}

func (nb *NewDutyBatch) Validate() error { return core.Validate.Struct(nb) }

// AssignmentFailure reports why a single assignment in a batch was rejected.
type AssignmentFailure struct {
	RoomNo        int    `json:"room_no"`
	InvigilatorID string `json:"invigilator_id"`
	Error         string `json:"error"`
}

// BatchResult is the outcome of a bulk assignment: whatever could be created
// was, the rest is reported per item.
type BatchResult struct {
	BatchID  string              `json:"batch_id"`
	Created  []Duty              `json:"created"`
	Failures []AssignmentFailure `json:"failures"`
}

// Attendance marks an invigilator present or absent for a duty.
type Attendance struct {
	Status string `json:"status" validate:"required,oneof=Present Absent"`
}

func (a *Attendance) Validate() error { return core.Validate.Struct(a) }
