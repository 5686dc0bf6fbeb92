package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/auth"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/pkg/logger"
	"github.com/labstack/echo/v4"
)

const callerKey = "caller"

// CallerResolver turns a bearer token into the authenticated caller
type CallerResolver func(ctx context.Context, token string) (*models.AuthenticatedCaller, error)

// JWTResolver validates locally issued tokens
func JWTResolver(tokens *auth.TokenManager) CallerResolver {
	return func(_ context.Context, token string) (*models.AuthenticatedCaller, error) {
		return tokens.Parse(token)
	}
}

// RequireAuth rejects requests without a valid bearer token with 401
func RequireAuth(resolve CallerResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}
			if err := authenticate(c, resolve, token); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// OptionalAuth lets anonymous requests through. A token that is present
// but invalid is still rejected.
func OptionalAuth(resolve CallerResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}
			if token != "" {
				if err := authenticate(c, resolve, token); err != nil {
					return err
				}
			}
			return next(c)
		}
	}
}

// CallerFrom returns the caller stored by the auth middleware, or nil
func CallerFrom(c echo.Context) *models.AuthenticatedCaller {
	caller, _ := c.Get(callerKey).(*models.AuthenticatedCaller)
	return caller
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", nil
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
	}
	return parts[1], nil
}

func authenticate(c echo.Context, resolve CallerResolver, token string) error {
	req := c.Request()
	caller, err := resolve(req.Context(), token)
	if err != nil || caller == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
	}
	c.Set(callerKey, caller)

	l := logger.Ctx(req.Context()).With().Str(logger.FieldUserID, strconv.FormatUint(uint64(caller.ID), 10)).Logger()
	c.SetRequest(req.WithContext(logger.WithLogger(req.Context(), l)))
	return nil
}
