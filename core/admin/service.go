package admin

import (
	"errors"
	"time"

	"github.com/ppmhss/pariksha/core"
)

var (
	// errors
	ErrNotFound           = errors.New("admin not found")
	ErrEmailExists        = errors.New("an admin with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account disabled")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string) error
		CreateAdmin(adm Admin) (Admin, error)
		GetAdminByID(id string) (Admin, error)
		GetAdminByEmail(email string) (Admin, error)
		UpdateAdmin(adm Admin) (Admin, error)
	}

	Service interface {
		CheckEmailUniqueness(email string) error
		Create(na NewAdmin) (Admin, error)
		GetByID(id string) (Admin, error)
		Authenticate(email, password string) (Admin, error)
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

func (svc *service) CheckEmailUniqueness(email string) error {
	if err := svc.repo.CheckEmailUniqueness(email); err != nil {
		if err == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(na NewAdmin) (Admin, error) {
	now := svc.nowFunc().UTC()
	adm := Admin{
		Name:      na.Name,
		Email:     na.Email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := adm.SetPassword(na.Password); err != nil {
		return Admin{}, err
	}
	return svc.repo.CreateAdmin(adm)
}

func (svc *service) GetByID(id string) (Admin, error) {
	return svc.repo.GetAdminByID(id)
}

// Authenticate checks credentials and records the login time.
// Failures are indistinguishable on purpose.
func (svc *service) Authenticate(email, password string) (Admin, error) {
	adm, err := svc.repo.GetAdminByEmail(core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, err
	}
	if err = adm.CheckPassword(password); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	if !adm.IsActive {
		return Admin{}, ErrAccountDisabled
	}

	adm.LastLogin = svc.nowFunc().UTC()
	return svc.repo.UpdateAdmin(adm)
}
