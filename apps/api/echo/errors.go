package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ppmhss/pariksha/core"
	"github.com/ppmhss/pariksha/core/admin"
	"github.com/ppmhss/pariksha/core/duty"
	"github.com/ppmhss/pariksha/core/student"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "admin not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
)

// notFoundErrs map to 404; conflictErrs to 409; staleStateErrs to 400.
var (
	notFoundErrs = []error{
		student.ErrNotFound,
		duty.ErrInvigilatorNotFound,
		duty.ErrDutyNotFound,
		duty.ErrBatchNotFound,
		admin.ErrNotFound,
	}
	conflictErrs = []error{
		student.ErrAadhaarExists,
		student.ErrSeatTaken,
		student.ErrCodeInUse,
		duty.ErrShortNameExists,
		duty.ErrRoomAssigned,
		duty.ErrInvigilatorBusy,
		admin.ErrEmailExists,
	}
	staleStateErrs = []error{
		student.ErrAlreadyDeleted,
		student.ErrNotDeleted,
		duty.ErrAlreadyDeleted,
		duty.ErrNotDeleted,
		duty.ErrAttendanceMarked,
	}
)

func errIn(err error, errs []error) bool {
	for _, e := range errs {
		if err == e {
			return true
		}
	}
	return false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
func newAppHTTPErrorHandler(logger core.Logger) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			cause := errors.Cause(err)
			switch {
			case errIn(cause, notFoundErrs):
				code = http.StatusNotFound
				message = cause.Error()
			case errIn(cause, conflictErrs):
				code = http.StatusConflict
				message = cause.Error()
			case errIn(cause, staleStateErrs):
				code = http.StatusBadRequest
				message = cause.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var adm admin.Admin
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					adm.ID = claims.Subject
					adm.Name = claims.Name
					adm.Email = claims.Email
				}
				logger.Error(msg, errors.Wrap(err, msg), adm)
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
