package student

import (
	"time"

	"github.com/ppmhss/pariksha/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service with a frozen clock for deterministic codes.
func NewServiceMock(repo Repository, mailSvc core.EmailService, now time.Time) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			mailSvc: mailSvc,
			rooms:   newRoomLocks(),
			nowFunc: func() time.Time { return now },
		},
	}
}
