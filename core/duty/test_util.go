package duty

import "time"

type serviceMock struct {
	service
}

// NewServiceMock returns a Service with a frozen clock.
func NewServiceMock(repo Repository, now time.Time) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			nowFunc: func() time.Time { return now },
		},
	}
}
