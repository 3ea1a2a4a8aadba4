package echoapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmhss/pariksha/core/duty"
)

const testExamDate = "2026-09-05"

func (env *testEnv) createInvigilator(t *testing.T, n int) duty.Invigilator {
	t.Helper()
	inv, err := env.dutySvc.CreateInvigilator(duty.NewInvigilator{
		Name:      "Teacher",
		ShortName: "TCH0" + string(rune('0'+n)),
		PhoneNo:   "984700010" + string(rune('0'+n)),
	})
	require.NoError(t, err)
	return inv
}

func Test_invigilatorAPI(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/v1/invigilators", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())

	payload := duty.NewInvigilator{Name: "Suresh Kumar", ShortName: "sk", PhoneNo: "9847001001"}
	rec = env.do(t, http.MethodPost, "/v1/invigilators", env.token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv duty.Invigilator
	decode(t, rec, &inv)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "SK", inv.ShortName) // uppercased

	// duplicate short name
	rec = env.do(t, http.MethodPost, "/v1/invigilators", env.token, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/invigilators", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var invs []duty.Invigilator
	decode(t, rec, &invs)
	assert.Len(t, invs, 1)

	rec = env.do(t, http.MethodPut, "/v1/invigilators/"+inv.ID, env.token, duty.UpdateInvigilator{Name: "Suresh K"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &inv)
	assert.Equal(t, "Suresh K", inv.Name)

	rec = env.do(t, http.MethodDelete, "/v1/invigilators/"+inv.ID, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &inv)
	assert.True(t, inv.IsDeleted)

	rec = env.do(t, http.MethodPost, "/v1/invigilators/"+inv.ID+"/restore", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &inv)
	assert.False(t, inv.IsDeleted)

	rec = env.do(t, http.MethodGet, "/v1/invigilators/nope", env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_dutyAPI_bulkAssign(t *testing.T) {
	env := setup(t)
	a := env.createInvigilator(t, 1)
	b := env.createInvigilator(t, 2)

	batch := duty.NewDutyBatch{
		ExamDate:  testExamDate,
		StartTime: "09:30",
		EndTime:   "12:30",
		Assignments: []duty.Assignment{
			{RoomNo: 1, InvigilatorID: a.ID},
			{RoomNo: 2, InvigilatorID: b.ID},
		},
	}
	rec := env.do(t, http.MethodPost, "/v1/duties", env.token, batch)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res duty.BatchResult
	decode(t, rec, &res)
	assert.NotEmpty(t, res.BatchID)
	assert.Len(t, res.Created, 2)
	assert.Empty(t, res.Failures)
	// duties carry the acting admin
	assert.Equal(t, env.admin.ID, res.Created[0].CreatedBy)

	// replaying the same batch: everything conflicts
	rec = env.do(t, http.MethodPost, "/v1/duties", env.token, batch)
	require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	decode(t, rec, &res)
	assert.Empty(t, res.Created)
	assert.Len(t, res.Failures, 2)

	rec = env.do(t, http.MethodGet, "/v1/duties?date="+testExamDate, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var duties []duty.Duty
	decode(t, rec, &duties)
	assert.Len(t, duties, 2)

	rec = env.do(t, http.MethodGet, "/v1/duties", env.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String()) // date is required

	rec = env.do(t, http.MethodGet, "/v1/invigilators/"+a.ID+"/duties", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &duties)
	require.Len(t, duties, 1)
	assert.Equal(t, 1, duties[0].RoomNo)
}

func Test_dutyAPI_availableRooms(t *testing.T) {
	env := setup(t)
	a := env.createInvigilator(t, 1)

	rec := env.do(t, http.MethodPost, "/v1/duties", env.token, duty.NewDutyBatch{
		ExamDate:    testExamDate,
		StartTime:   "09:30",
		EndTime:     "12:30",
		Assignments: []duty.Assignment{{RoomNo: 1, InvigilatorID: a.ID}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/v1/duties/available-rooms?date="+testExamDate, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		AvailableRooms []int `json:"available_rooms"`
	}
	decode(t, rec, &res)
	require.Len(t, res.AvailableRooms, duty.MaxRoomNo-1)
	assert.Equal(t, 2, res.AvailableRooms[0])
}

func Test_dutyAPI_attendanceAndDeletion(t *testing.T) {
	env := setup(t)
	a := env.createInvigilator(t, 1)
	b := env.createInvigilator(t, 2)

	rec := env.do(t, http.MethodPost, "/v1/duties", env.token, duty.NewDutyBatch{
		ExamDate:  testExamDate,
		StartTime: "09:30",
		EndTime:   "12:30",
		Assignments: []duty.Assignment{
			{RoomNo: 1, InvigilatorID: a.ID},
			{RoomNo: 2, InvigilatorID: b.ID},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var res duty.BatchResult
	decode(t, rec, &res)

	rec = env.do(t, http.MethodPut, "/v1/duties/"+res.Created[0].ID+"/attendance", env.token,
		duty.Attendance{Status: duty.StatusPresent})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var d duty.Duty
	decode(t, rec, &d)
	assert.Equal(t, duty.StatusPresent, d.Status)

	rec = env.do(t, http.MethodPut, "/v1/duties/"+res.Created[0].ID+"/attendance", env.token,
		duty.Attendance{Status: "Late"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	// attendance protects the duty and its whole batch
	rec = env.do(t, http.MethodDelete, "/v1/duties/"+res.Created[0].ID, env.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	rec = env.do(t, http.MethodDelete, "/v1/duties/batch/"+res.BatchID, env.token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/v1/duties/"+res.Created[1].ID, env.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/v1/duties/batch/nope", env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func Test_server_home(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Pariksha API!", rec.Body.String())
}
