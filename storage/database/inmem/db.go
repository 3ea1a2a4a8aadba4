// Package inmemdb provides map-backed repositories for tests and local hacking.
package inmemdb

import (
	"sync"

	"github.com/ppmhss/pariksha/core/admin"
	"github.com/ppmhss/pariksha/core/duty"
	"github.com/ppmhss/pariksha/core/student"
)

type (
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
		seq   map[string]int64 // named counters, same shape as the sequence table
	}

	invigilatorTable struct {
		mutex sync.RWMutex
		table map[string]*duty.Invigilator
	}

	dutyTable struct {
		mutex sync.RWMutex
		table map[string]*duty.Duty
	}

	adminTable struct {
		mutex sync.RWMutex
		table map[string]*admin.Admin
	}

	DB struct {
		student     *studentTable
		invigilator *invigilatorTable
		duty        *dutyTable
		admin       *adminTable
	}
)

func NewDB() *DB {
	return &DB{
		student: &studentTable{
			table: make(map[string]*student.Student),
			seq:   map[string]int64{"registration": 999},
		},
		invigilator: &invigilatorTable{table: make(map[string]*duty.Invigilator)},
		duty:        &dutyTable{table: make(map[string]*duty.Duty)},
		admin:       &adminTable{table: make(map[string]*admin.Admin)},
	}
}
