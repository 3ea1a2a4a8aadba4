package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ppmhss/pariksha/core/duty"
)

type dutyApi struct {
	svc duty.Service
}

func registerDutyAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc duty.Service) {
	api := dutyApi{svc: svc}

	// invigilators
	ig := g.Group("/invigilators", jwt)
	ig.POST("", api.createInvigilator)
	ig.GET("", api.queryInvigilators)
	ig.GET("/:id", api.retrieveInvigilator)
	ig.PUT("/:id", api.updateInvigilator)
	ig.DELETE("/:id", api.softDeleteInvigilator)
	ig.POST("/:id/restore", api.restoreInvigilator)
	ig.GET("/:id/duties", api.invigilatorDuties)

	// duties
	dg := g.Group("/duties", jwt)
	dg.POST("", api.bulkAssign)
	dg.GET("", api.dutiesByDate)
	dg.GET("/available-rooms", api.availableRooms)
	dg.PUT("/:id/attendance", api.markAttendance)
	dg.DELETE("/:id", api.deleteDuty)
	dg.DELETE("/batch/:batchId", api.deleteBatch)
}

// Handlers

func (api *dutyApi) createInvigilator(ctx echo.Context) error {
	var data duty.NewInvigilator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInvigilator")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	inv, err := api.svc.CreateInvigilator(data)
	if err != nil {
		return errors.Wrap(err, "creating invigilator")
	}
	return ctx.JSON(http.StatusCreated, inv)
}

func (api *dutyApi) queryInvigilators(ctx echo.Context) error {
	invs, err := api.svc.QueryInvigilators()
	if err != nil {
		return errors.Wrap(err, "querying invigilators")
	}
	if invs == nil {
		invs = []duty.Invigilator{}
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (api *dutyApi) retrieveInvigilator(ctx echo.Context) error {
	inv, err := api.svc.GetInvigilatorByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding invigilator by ID")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *dutyApi) updateInvigilator(ctx echo.Context) error {
	var data duty.UpdateInvigilator
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateInvigilator")
	}

	inv, err := api.svc.UpdateInvigilator(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating invigilator")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *dutyApi) softDeleteInvigilator(ctx echo.Context) error {
	inv, err := api.svc.SoftDeleteInvigilator(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "soft-deleting invigilator")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *dutyApi) restoreInvigilator(ctx echo.Context) error {
	inv, err := api.svc.RestoreInvigilator(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "restoring invigilator")
	}
	return ctx.JSON(http.StatusOK, inv)
}

func (api *dutyApi) invigilatorDuties(ctx echo.Context) error {
	duties, err := api.svc.DutiesByInvigilator(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying invigilator duties")
	}
	if duties == nil {
		duties = []duty.Duty{}
	}
	return ctx.JSON(http.StatusOK, duties)
}

func (api *dutyApi) bulkAssign(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data duty.NewDutyBatch
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDutyBatch")
	}

	res, err := api.svc.BulkAssign(data, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "assigning duties")
	}

	// everything rejected: the batch as a whole failed
	code := http.StatusCreated
	if len(res.Created) == 0 {
		code = http.StatusConflict
	}
	return ctx.JSON(code, res)
}

func (api *dutyApi) dutiesByDate(ctx echo.Context) error {
	date, err := bindDateParam(ctx)
	if err != nil {
		return err
	}
	duties, err := api.svc.DutiesByDate(date)
	if err != nil {
		return errors.Wrap(err, "querying duties")
	}
	if duties == nil {
		duties = []duty.Duty{}
	}
	return ctx.JSON(http.StatusOK, duties)
}

func (api *dutyApi) availableRooms(ctx echo.Context) error {
	date, err := bindDateParam(ctx)
	if err != nil {
		return err
	}
	rooms, err := api.svc.AvailableRooms(date)
	if err != nil {
		return errors.Wrap(err, "querying available rooms")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"available_rooms": rooms})
}

func (api *dutyApi) markAttendance(ctx echo.Context) error {
	var data duty.Attendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Attendance")
	}

	d, err := api.svc.MarkAttendance(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *dutyApi) deleteDuty(ctx echo.Context) error {
	if err := api.svc.DeleteDuty(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting duty")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *dutyApi) deleteBatch(ctx echo.Context) error {
	if err := api.svc.DeleteBatch(ctx.Param("batchId")); err != nil {
		return errors.Wrap(err, "deleting duty batch")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func bindDateParam(ctx echo.Context) (time.Time, error) {
	raw := ctx.QueryParam("date")
	if raw == "" {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date query param is required")
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "date must be in YYYY-MM-DD format")
	}
	return date, nil
}
