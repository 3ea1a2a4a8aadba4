package echoapi

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ppmhss/pariksha/core/student"
)

const defaultTopLimit = 10

type studentApi struct {
	svc student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.Service) {
	api := studentApi{svc: svc}

	// un-authed endpoints
	// TODO: rate limit `/students` & `/results/:code`
	sg := g.Group("/students")
	sg.POST("", api.register)
	g.GET("/results/:code", api.result)

	// authed endpoints; jwt goes on each route so the group's root path stays
	// open for the public registration POST above
	sg.GET("", api.query, jwt)
	sg.GET("/deleted", api.queryDeleted, jwt)
	sg.GET("/export", api.exportCSV, jwt)
	sg.GET("/stats", api.stats, jwt)
	sg.GET("/rooms", api.roomDistribution, jwt)
	sg.GET("/next-registration-code", api.peekRegistrationCode, jwt)
	sg.GET("/next-application-no", api.peekApplicationNo, jwt)
	sg.GET("/top", api.topPerformers, jwt)
	sg.POST("/marks", api.enterMarks, jwt)
	sg.POST("/publish-results", api.publishResults, jwt)

	// detail endpoints
	dg := sg.Group("/:id", jwt)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.softDelete)
	dg.POST("/restore", api.restore)
	dg.DELETE("/permanent", api.hardDelete)
}

// Handlers

func (api *studentApi) register(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.svc); err != nil {
		return err
	}

	stu, err := api.svc.Register(data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)
	filter.Orderings = ordering.Orderings

	students, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) queryDeleted(ctx echo.Context) error {
	students, err := api.svc.QueryDeleted()
	if err != nil {
		return errors.Wrap(err, "querying deleted students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) exportCSV(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	_ = ctx.Bind(filter)

	students, err := api.svc.Filter(*filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="students.csv"`)
	res.WriteHeader(http.StatusOK)

	w := csv.NewWriter(res)
	header := []string{
		"Registration Code", "Application No", "Name", "Father's Name", "Gender", "Date of Birth",
		"Class", "Medium", "School", "Phone", "Room", "Seat", "Status", "Mark", "Rank", "Scholarship", "Result",
	}
	if err = w.Write(header); err != nil {
		return errors.Wrap(err, "writing CSV header")
	}
	for _, stu := range students {
		record := []string{
			stu.RegistrationCode,
			stu.ApplicationNo,
			stu.Name,
			stu.FatherName,
			stu.Gender,
			stu.DateOfBirth.Format("2006-01-02"),
			strconv.Itoa(stu.Class),
			stu.Medium,
			stu.SchoolName,
			stu.PhoneNo,
			strconv.Itoa(stu.RoomNo),
			strconv.Itoa(stu.SeatNo),
			stu.Status,
			formatOptionalInt(stu.Mark),
			formatOptionalInt(stu.Rank),
			stu.Scholarship,
			stu.ResultStatus,
		}
		if err = w.Write(record); err != nil {
			return errors.Wrap(err, "writing CSV record")
		}
	}
	w.Flush()
	return errors.Wrap(w.Error(), "flushing CSV")
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func (api *studentApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats()
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (api *studentApi) roomDistribution(ctx echo.Context) error {
	occs, err := api.svc.RoomDistribution()
	if err != nil {
		return errors.Wrap(err, "querying room distribution")
	}
	if occs == nil {
		occs = []student.RoomOccupancy{}
	}
	return ctx.JSON(http.StatusOK, occs)
}

func (api *studentApi) peekRegistrationCode(ctx echo.Context) error {
	code, err := api.svc.PeekNextRegistrationCode()
	if err != nil {
		return errors.Wrap(err, "peeking next registration code")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"next_registration_code": code})
}

func (api *studentApi) peekApplicationNo(ctx echo.Context) error {
	appNo, err := api.svc.PeekNextApplicationNo()
	if err != nil {
		return errors.Wrap(err, "peeking next application no")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"next_application_no": appNo})
}

func (api *studentApi) topPerformers(ctx echo.Context) error {
	limit := defaultTopLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	students, err := api.svc.TopPerformers(limit)
	if err != nil {
		return errors.Wrap(err, "querying top performers")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) enterMarks(ctx echo.Context) error {
	var data student.EnterMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnterMarks")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	stu, err := api.svc.EnterMarks(data)
	if err != nil {
		return errors.Wrap(err, "entering marks")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) publishResults(ctx echo.Context) error {
	ranked, err := api.svc.PublishResults()
	if err != nil {
		return errors.Wrap(err, "publishing results")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: fmt.Sprintf("Results published for %d candidates.", len(ranked)),
	})
}

func (api *studentApi) result(ctx echo.Context) error {
	res, err := api.svc.ResultByCode(ctx.Param("code"))
	if err != nil {
		return errors.Wrap(err, "looking up result")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	stu, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student by ID")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	stu, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) softDelete(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	var data student.DeleteStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteStudent")
	}

	stu, err := api.svc.SoftDelete(ctx.Param("id"), claims.Subject, data.Reason)
	if err != nil {
		return errors.Wrap(err, "soft-deleting student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) restore(ctx echo.Context) error {
	stu, err := api.svc.Restore(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "restoring student")
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) hardDelete(ctx echo.Context) error {
	if err := api.svc.HardDelete(ctx.Param("id")); err != nil {
		return errors.Wrap(err, "hard-deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

