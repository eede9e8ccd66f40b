package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/sintimjnr/gctu-project-submission-system/core"
	"github.com/sintimjnr/gctu-project-submission-system/core/deadline"
	"github.com/sintimjnr/gctu-project-submission-system/core/project"
	"github.com/sintimjnr/gctu-project-submission-system/core/user"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// statusFor maps domain errors to their HTTP status.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, deadline.ErrExceeded), errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden, true
	case errors.Is(err, user.ErrNotFound), errors.Is(err, project.ErrNotFound), errors.Is(err, project.ErrNoFile),
		errors.Is(err, core.ErrBlobNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, project.ErrInvalidTransition), errors.Is(err, project.ErrConflict):
		return http.StatusConflict, true
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusBadRequest, true
	}
	return 0, false
}

// httpError returns the echo.HTTPError carried by err, if any.
// The JWT middleware wraps the real error in Internal.
func httpError(err error) (*echo.HTTPError, bool) {
	herr, ok := errors.Cause(err).(*echo.HTTPError)
	if !ok {
		return nil, false
	}
	if herr == middleware.ErrJWTMissing {
		return herr, true
	}
	if inner, ok := herr.Internal.(*echo.HTTPError); ok {
		return inner, true
	}
	return herr, true
}

// errorStatus is the status the error handler responds with for err.
// The metrics middleware labels failed requests with it too.
func errorStatus(err error) int {
	if herr, ok := httpError(err); ok {
		if herr == middleware.ErrJWTMissing {
			return http.StatusUnauthorized
		}
		return herr.Code
	}
	switch errors.Cause(err).(type) {
	case validator.ValidationErrors, *core.ValidationError:
		return http.StatusBadRequest
	}
	if status, ok := statusFor(err); ok {
		return status
	}
	return http.StatusInternalServerError
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		code := errorStatus(err)
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			herr, _ := httpError(err)
			message = herr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
			}
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
		default:
			if code != http.StatusInternalServerError {
				message = origErr.Error()
				break
			}

			// any other error is a server error
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			if id, cErr := getIdentity(ctx); cErr == nil {
				logger.Error(msg, errors.Wrap(err, msg), id)
			} else {
				logger.Error(msg, errors.Wrap(err, msg))
			}
			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
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
