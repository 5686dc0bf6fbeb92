package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/middleware"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/labstack/echo/v4"
)

// httpError maps a service error to the HTTP status of its kind. Unknown
// errors are logged and reported as 500 without details.
func httpError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	msg := err.Error()
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msg)
	case errors.Is(err, apperror.ErrConflict):
		if fields := apperror.Fields(err); len(fields) > 0 {
			return echo.NewHTTPError(http.StatusConflict, echo.Map{"message": msg, "fields": fields})
		}
		return echo.NewHTTPError(http.StatusConflict, msg)
	case errors.Is(err, apperror.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusForbidden, msg)
	case errors.Is(err, apperror.ErrInvalidOperation):
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}

	l := logger.Ctx(c.Request().Context())
	l.Error().Err(err).Msg("request failed")
	return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
}

// success writes the {"success": true, "data": ...} envelope
func success(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

// callerOf returns the authenticated caller or a 401 error
func callerOf(c echo.Context) (models.AuthenticatedCaller, error) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		return models.AuthenticatedCaller{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return *caller, nil
}

// viewerID is 0 for anonymous requests
func viewerID(c echo.Context) uint {
	if caller := middleware.CallerFrom(c); caller != nil {
		return caller.ID
	}
	return 0
}

func idParam(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// bindAndValidate binds the request body into req and runs the echo validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	return c.Validate(req)
}

// Guards are the auth middlewares applied per route
type Guards struct {
	Required echo.MiddlewareFunc
	Optional echo.MiddlewareFunc
}
