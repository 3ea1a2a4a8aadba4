package student

import (
	"fmt"
	"time"

	"github.com/ppmhss/pariksha/core"
)

// Seating
const (
	RoomCapacity = 20
	FirstRoomNo  = 1
)

// Results
const (
	PassMark         = 40
	CoachingRankList = 100 // candidates ranked within this limit qualify for coaching
)

// Statuses
const (
	StatusRegistered      = "Registered"
	StatusExamCompleted   = "Exam Completed"
	StatusResultPublished = "Result Published"
)

// Result statuses
const (
	ResultPending = "Pending"
	ResultPassed  = "Passed"
	ResultFailed  = "Failed"
)

// Scholarships
const (
	ScholarshipGold   = "Gold"
	ScholarshipSilver = "Silver"
	ScholarshipBronze = "Bronze"
)

type Address struct {
	HouseName     string `json:"house_name"`
	Street        string `json:"street"`
	Place         string `json:"place"`
	Village       string `json:"village"`
	PostOffice    string `json:"post_office"`
	PinCode       string `json:"pin_code" validate:"omitempty,len=6,numeric"`
	District      string `json:"district"`
	LocalBodyType string `json:"local_body_type" validate:"omitempty,oneof=Municipality Corporation Panchayat"`
	LocalBodyName string `json:"local_body_name"`
}

type Student struct {
	ID               string    `json:"id"`
	RegistrationCode string    `json:"registration_code"`
	ApplicationNo    string    `json:"application_no"`
	Name             string    `json:"name"`
	FatherName       string    `json:"father_name"`
	Gender           string    `json:"gender"`
	DateOfBirth      time.Time `json:"date_of_birth"`
	AadhaarNo        string    `json:"aadhaar_no"`
	PhoneNo          string    `json:"phone_no"`
	Email            string    `json:"email"`
	Class            int       `json:"class"`
	Medium           string    `json:"medium"`
	SchoolName       string    `json:"school_name"`
	Address          Address   `json:"address"`
	RoomNo           int       `json:"room_no"`
	SeatNo           int       `json:"seat_no"`
	Status           string    `json:"status"`
	Mark             *int      `json:"mark"`
	Rank             *int      `json:"rank"`
	Scholarship      string    `json:"scholarship"`
	IASCoaching      bool      `json:"ias_coaching"`
	ResultStatus     string    `json:"result_status"`
	IsDeleted        bool      `json:"is_deleted"`
	DeletedAt        time.Time `json:"deleted_at,omitempty"` // UTC
	DeletedBy        string    `json:"deleted_by,omitempty"` // admin ID
	DeleteReason     string    `json:"delete_reason,omitempty"`
	// pre-rewrite codes, the source of truth for restore
	OriginalRegistrationCode string    `json:"original_registration_code,omitempty"`
	OriginalApplicationNo    string    `json:"original_application_no,omitempty"`
	CreatedAt                time.Time `json:"created_at"` // UTC
	UpdatedAt                time.Time `json:"updated_at"` // UTC
}

// HallTicket is the seating summary handed to the candidate.
func (s *Student) HallTicket() string {
	return fmt.Sprintf("%s | Room %d, Seat %d", s.RegistrationCode, s.RoomNo, s.SeatNo)
}

func (s *Student) HasMark() bool { return s.Mark != nil }

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name        string  `json:"name" validate:"required"`
	FatherName  string  `json:"father_name" validate:"required"`
	Gender      string  `json:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	AadhaarNo   string  `json:"aadhaar_no" validate:"required,len=12,numeric"`
	PhoneNo     string  `json:"phone_no" validate:"required,len=10,numeric"`
	Email       string  `json:"email" validate:"omitempty,email"`
	Class       int     `json:"class" validate:"required,min=7,max=12"`
	Medium      string  `json:"medium" validate:"required,oneof=English Malayalam Hindi Other"`
	SchoolName  string  `json:"school_name" validate:"required"`
	Address     Address `json:"address"`
}

func (ns *NewStudent) Validate(svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.FatherName = core.CleanString(ns.FatherName)
	ns.SchoolName = core.CleanString(ns.SchoolName)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckAadhaarUniqueness(ns.AadhaarNo)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// Identity codes, seating and results are managed by the service and cannot be set here.
type UpdateStudent struct {
	Name       string  `json:"name"`
	FatherName string  `json:"father_name"`
	Gender     string  `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	PhoneNo    string  `json:"phone_no" validate:"omitempty,len=10,numeric"`
	Email      string  `json:"email" validate:"omitempty,email"`
	Medium     string  `json:"medium" validate:"omitempty,oneof=English Malayalam Hindi Other"`
	SchoolName string  `json:"school_name"`
	Address    Address `json:"address"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	father := core.CleanString(us.FatherName)
	if father != "" {
		us.FatherName = father
	} else {
		us.FatherName = orig.FatherName
	}
	if us.Gender == "" {
		us.Gender = orig.Gender
	}
	if us.PhoneNo == "" {
		us.PhoneNo = orig.PhoneNo
	}
	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}
	if us.Medium == "" {
		us.Medium = orig.Medium
	}
	school := core.CleanString(us.SchoolName)
	if school != "" {
		us.SchoolName = school
	} else {
		us.SchoolName = orig.SchoolName
	}
	return core.Validate.Struct(us)
}

// DeleteStudent captures why a student is being retired.
type DeleteStudent struct {
	Reason string `json:"reason" query:"reason"`
}

// EnterMarks records the score a candidate obtained.
type EnterMarks struct {
	RegistrationCode string `json:"registration_code" validate:"required"`
	Mark             int    `json:"mark" validate:"min=0,max=100"`
}

func (em *EnterMarks) Validate() error {
	em.RegistrationCode = core.CleanString(em.RegistrationCode)
	return core.Validate.Struct(em)
}

type QueryFilter struct {
	Search    string `query:"search"` // matches name, registration code, application no or school
	Class     int    `query:"class"`
	Medium    string `query:"medium"`
	RoomNo    int    `query:"room_no"`
	Status    string `query:"status"`
	IsDeleted *bool  `query:"is_deleted"`

	Orderings []core.DBOrdering `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Class == 0 && qf.Medium == "" && qf.RoomNo == 0 &&
		qf.Status == "" && qf.IsDeleted == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Slot is a (room, seat) assignment.
type Slot struct {
	RoomNo int `json:"room_no"`
	SeatNo int `json:"seat_no"`
}

// RoomOccupancy summarizes how full a room is.
type RoomOccupancy struct {
	RoomNo    int   `json:"room_no"`
	Occupied  int   `json:"occupied"`
	SeatsUsed []int `json:"seats_used"`
}

func (ro RoomOccupancy) IsFull() bool { return ro.Occupied >= RoomCapacity }

// Result is the public view of a candidate's outcome, keyed by registration code.
type Result struct {
	RegistrationCode string `json:"registration_code"`
	Name             string `json:"name"`
	Class            int    `json:"class"`
	Mark             *int   `json:"mark"`
	Rank             *int   `json:"rank"`
	Scholarship      string `json:"scholarship,omitempty"`
	IASCoaching      bool   `json:"ias_coaching"`
	ResultStatus     string `json:"result_status"`
}

// DashboardStats aggregates headline numbers for the admin dashboard.
type DashboardStats struct {
	TotalActive    int            `json:"total_active"`
	TotalDeleted   int            `json:"total_deleted"`
	RoomsInUse     int            `json:"rooms_in_use"`
	ResultsEntered int            `json:"results_entered"`
	Passed         int            `json:"passed"`
	Failed         int            `json:"failed"`
	ByClass        map[int]int    `json:"by_class"`
	ByMedium       map[string]int `json:"by_medium"`
}
