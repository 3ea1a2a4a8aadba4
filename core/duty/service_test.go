package duty_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/duty"
	inmemdb "github.com/ppmhss/pariksha/storage/database/inmem"
)

var frozenNow = time.Date(2026, time.August, 15, 8, 0, 0, 0, time.UTC)

const (
	examDate = "2026-09-05"
	actorID  = "adm-0001"
)

func setup(t *testing.T) duty.Service {
	t.Helper()
	repo := inmemdb.NewDutyRepository(inmemdb.NewDB())
	return duty.NewServiceMock(repo, frozenNow)
}

func createInvigilator(t *testing.T, svc duty.Service, n int) duty.Invigilator {
	t.Helper()
	inv, err := svc.CreateInvigilator(duty.NewInvigilator{
		Name:      fmt.Sprintf("Teacher %02d", n),
		ShortName: fmt.Sprintf("TCH%02d", n),
		PhoneNo:   fmt.Sprintf("98470001%02d", n),
	})
	require.NoError(t, err)
	return inv
}

func assign(t *testing.T, svc duty.Service, assignments ...duty.Assignment) duty.BatchResult {
	t.Helper()
	res, err := svc.BulkAssign(duty.NewDutyBatch{
		ExamDate:    examDate,
		StartTime:   "09:30",
		EndTime:     "12:30",
		Assignments: assignments,
	}, actorID)
	require.NoError(t, err)
	return res
}

func TestService_CreateInvigilator(t *testing.T) {
	svc := setup(t)

	inv := createInvigilator(t, svc, 1)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "TCH01", inv.ShortName)

	// short names are unique among the living
	err := svc.CheckShortNameUniqueness("TCH01")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.NoError(t, svc.CheckShortNameUniqueness("TCH02"))

	ni := duty.NewInvigilator{Name: "Dup", ShortName: "tch01", PhoneNo: "9847000199"}
	err = ni.Validate(svc)
	require.ErrorAs(t, err, &vErr) // lowercased input still collides
}

func TestService_UpdateInvigilator(t *testing.T) {
	svc := setup(t)
	inv := createInvigilator(t, svc, 1)
	createInvigilator(t, svc, 2)

	updated, err := svc.UpdateInvigilator(inv.ID, duty.UpdateInvigilator{PhoneNo: "9000000009"})
	require.NoError(t, err)
	assert.Equal(t, "9000000009", updated.PhoneNo)
	assert.Equal(t, inv.Name, updated.Name)
	assert.Equal(t, inv.ShortName, updated.ShortName)

	// taking another invigilator's short name is refused
	_, err = svc.UpdateInvigilator(inv.ID, duty.UpdateInvigilator{ShortName: "TCH02"})
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)

	// keeping one's own is fine
	_, err = svc.UpdateInvigilator(inv.ID, duty.UpdateInvigilator{ShortName: "tch01"})
	assert.NoError(t, err)
}

func TestService_InvigilatorLifecycle(t *testing.T) {
	svc := setup(t)
	inv := createInvigilator(t, svc, 1)

	_, err := svc.RestoreInvigilator(inv.ID)
	assert.Equal(t, duty.ErrNotDeleted, err)

	deleted, err := svc.SoftDeleteInvigilator(inv.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, frozenNow, deleted.DeletedAt)

	_, err = svc.SoftDeleteInvigilator(inv.ID)
	assert.Equal(t, duty.ErrAlreadyDeleted, err)

	// deleted invigilators free up their short name
	require.NoError(t, svc.CheckShortNameUniqueness("TCH01"))
	listed, err := svc.QueryInvigilators()
	require.NoError(t, err)
	assert.Empty(t, listed)

	restored, err := svc.RestoreInvigilator(inv.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted)
	assert.True(t, restored.DeletedAt.IsZero())

	// restore fails once the short name was taken meanwhile
	_, err = svc.SoftDeleteInvigilator(inv.ID)
	require.NoError(t, err)
	createInvigilator(t, svc, 1)
	_, err = svc.RestoreInvigilator(inv.ID)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestService_BulkAssign(t *testing.T) {
	svc := setup(t)
	a := createInvigilator(t, svc, 1)
	b := createInvigilator(t, svc, 2)

	res := assign(t, svc,
		duty.Assignment{RoomNo: 1, InvigilatorID: a.ID},
		duty.Assignment{RoomNo: 2, InvigilatorID: b.ID},
	)
	assert.NotEmpty(t, res.BatchID)
	require.Len(t, res.Created, 2)
	assert.Empty(t, res.Failures)
	for _, d := range res.Created {
		assert.Equal(t, res.BatchID, d.BatchID)
		assert.Equal(t, duty.StatusAssigned, d.Status)
		assert.Equal(t, actorID, d.CreatedBy)
		assert.Equal(t, "09:30", d.StartTime)
		assert.Equal(t, "12:30", d.EndTime)
	}

	date, _ := time.Parse("2006-01-02", examDate)
	duties, err := svc.DutiesByDate(date)
	require.NoError(t, err)
	assert.Len(t, duties, 2)

	duties, err = svc.DutiesByInvigilator(a.ID)
	require.NoError(t, err)
	require.Len(t, duties, 1)
	assert.Equal(t, 1, duties[0].RoomNo)
}

func TestService_BulkAssign_partialSuccess(t *testing.T) {
	svc := setup(t)
	a := createInvigilator(t, svc, 1)
	b := createInvigilator(t, svc, 2)
	c := createInvigilator(t, svc, 3)

	gone, err := svc.SoftDeleteInvigilator(createInvigilator(t, svc, 4).ID)
	require.NoError(t, err)

	assign(t, svc, duty.Assignment{RoomNo: 1, InvigilatorID: a.ID})

	res := assign(t, svc,
		duty.Assignment{RoomNo: 1, InvigilatorID: b.ID},  // room covered
		duty.Assignment{RoomNo: 2, InvigilatorID: a.ID},  // invigilator busy
		duty.Assignment{RoomNo: 3, InvigilatorID: gone.ID}, // deleted invigilator
		duty.Assignment{RoomNo: 4, InvigilatorID: c.ID},  // fine
	)

	require.Len(t, res.Created, 1)
	assert.Equal(t, 4, res.Created[0].RoomNo)

	require.Len(t, res.Failures, 3)
	errsByRoom := make(map[int]string, len(res.Failures))
	for _, f := range res.Failures {
		errsByRoom[f.RoomNo] = f.Error
	}
	assert.Equal(t, duty.ErrRoomAssigned.Error(), errsByRoom[1])
	assert.Equal(t, duty.ErrInvigilatorBusy.Error(), errsByRoom[2])
	assert.Equal(t, duty.ErrInvigilatorNotFound.Error(), errsByRoom[3])
}

func TestService_BulkAssign_validation(t *testing.T) {
	svc := setup(t)
	inv := createInvigilator(t, svc, 1)

	tests := []struct {
		name  string
		batch duty.NewDutyBatch
	}{
		{"no assignments", duty.NewDutyBatch{ExamDate: examDate, StartTime: "09:30", EndTime: "12:30"}},
		{"bad date", duty.NewDutyBatch{ExamDate: "05-09-2026", StartTime: "09:30", EndTime: "12:30",
			Assignments: []duty.Assignment{{RoomNo: 1, InvigilatorID: inv.ID}}}},
		{"bad time", duty.NewDutyBatch{ExamDate: examDate, StartTime: "9h30", EndTime: "12:30",
			Assignments: []duty.Assignment{{RoomNo: 1, InvigilatorID: inv.ID}}}},
		{"room out of range", duty.NewDutyBatch{ExamDate: examDate, StartTime: "09:30", EndTime: "12:30",
			Assignments: []duty.Assignment{{RoomNo: duty.MaxRoomNo + 1, InvigilatorID: inv.ID}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.BulkAssign(tt.batch, actorID)
			assert.Error(t, err)
		})
	}
}

func TestService_MarkAttendance(t *testing.T) {
	svc := setup(t)
	inv := createInvigilator(t, svc, 1)
	res := assign(t, svc, duty.Assignment{RoomNo: 1, InvigilatorID: inv.ID})
	d := res.Created[0]

	marked, err := svc.MarkAttendance(d.ID, duty.Attendance{Status: duty.StatusPresent})
	require.NoError(t, err)
	assert.Equal(t, duty.StatusPresent, marked.Status)
	assert.True(t, marked.AttendanceMarked())

	_, err = svc.MarkAttendance(d.ID, duty.Attendance{Status: "Late"})
	assert.Error(t, err)

	_, err = svc.MarkAttendance("nope", duty.Attendance{Status: duty.StatusAbsent})
	assert.Equal(t, duty.ErrDutyNotFound, err)
}

func TestService_DeleteDuty(t *testing.T) {
	svc := setup(t)
	a := createInvigilator(t, svc, 1)
	b := createInvigilator(t, svc, 2)
	res := assign(t, svc,
		duty.Assignment{RoomNo: 1, InvigilatorID: a.ID},
		duty.Assignment{RoomNo: 2, InvigilatorID: b.ID},
	)

	_, err := svc.MarkAttendance(res.Created[0].ID, duty.Attendance{Status: duty.StatusPresent})
	require.NoError(t, err)

	assert.Equal(t, duty.ErrAttendanceMarked, svc.DeleteDuty(res.Created[0].ID))
	assert.NoError(t, svc.DeleteDuty(res.Created[1].ID))
	assert.Equal(t, duty.ErrDutyNotFound, svc.DeleteDuty(res.Created[1].ID))
}

func TestService_DeleteBatch(t *testing.T) {
	svc := setup(t)
	a := createInvigilator(t, svc, 1)
	b := createInvigilator(t, svc, 2)
	res := assign(t, svc,
		duty.Assignment{RoomNo: 1, InvigilatorID: a.ID},
		duty.Assignment{RoomNo: 2, InvigilatorID: b.ID},
	)

	assert.Equal(t, duty.ErrBatchNotFound, svc.DeleteBatch("nope"))

	// one attendance mark blocks the whole batch
	_, err := svc.MarkAttendance(res.Created[0].ID, duty.Attendance{Status: duty.StatusAbsent})
	require.NoError(t, err)
	assert.Equal(t, duty.ErrAttendanceMarked, svc.DeleteBatch(res.BatchID))

	// a second batch on another date is deletable
	res2, err := svc.BulkAssign(duty.NewDutyBatch{
		ExamDate:    "2026-09-06",
		StartTime:   "09:30",
		EndTime:     "12:30",
		Assignments: []duty.Assignment{{RoomNo: 1, InvigilatorID: a.ID}},
	}, actorID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteBatch(res2.BatchID))
	assert.Equal(t, duty.ErrBatchNotFound, svc.DeleteBatch(res2.BatchID))
}

func TestService_AvailableRooms(t *testing.T) {
	svc := setup(t)
	a := createInvigilator(t, svc, 1)
	b := createInvigilator(t, svc, 2)

	date, _ := time.Parse("2006-01-02", examDate)
	free, err := svc.AvailableRooms(date)
	require.NoError(t, err)
	require.Len(t, free, duty.MaxRoomNo)
	assert.Equal(t, duty.MinRoomNo, free[0])

	assign(t, svc,
		duty.Assignment{RoomNo: 1, InvigilatorID: a.ID},
		duty.Assignment{RoomNo: 3, InvigilatorID: b.ID},
	)

	free, err = svc.AvailableRooms(date)
	require.NoError(t, err)
	require.Len(t, free, duty.MaxRoomNo-2)
	assert.Equal(t, 2, free[0])
	assert.Equal(t, 4, free[1])

	// another date is unaffected
	other, err := svc.AvailableRooms(date.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, other, duty.MaxRoomNo)
}
