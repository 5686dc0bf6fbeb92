package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/labstack/echo/v4"
)

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterUserRoutes registers profile routes. Static paths are registered
// before /users/:profileName and win over it in echo's router.
func (h *UserHandler) RegisterUserRoutes(g *echo.Group, guards Guards) {
	g.GET("/users", h.ListUsers, guards.Required)
	g.GET("/users/search", h.SearchUsers, guards.Required)
	g.GET("/users/profile", h.GetMe, guards.Required)
	g.PUT("/users/profile", h.UpdateProfile, guards.Required)
	g.DELETE("/users/profile", h.DeleteAccount, guards.Required)
	g.PATCH("/users/avatar", h.UpdateAvatar, guards.Required)
	g.DELETE("/users/avatar", h.DeleteAvatar, guards.Required)
	g.PATCH("/users/password", h.ChangePassword, guards.Required)
	g.GET("/users/:profileName", h.GetProfile, guards.Optional)
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, users)
}

// SearchUsers matches ?q= against names and profile names
func (h *UserHandler) SearchUsers(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query is required")
	}
	users, err := h.users.Search(c.Request().Context(), q)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, users)
}

// GetMe returns the authenticated user's profile
func (h *UserHandler) GetMe(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	profile, err := h.users.Me(c.Request().Context(), caller)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, profile)
}

// GetProfile returns a public profile; followed is set for authenticated viewers
func (h *UserHandler) GetProfile(c echo.Context) error {
	profile, err := h.users.Profile(c.Request().Context(), c.Param("profileName"), viewerID(c))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.Request().Context(), caller, req)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.users.ChangePassword(c.Request().Context(), caller, req.CurrentPassword, req.NewPassword); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateAvatar accepts a single image in the "file" form field
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Avatar file is required")
	}
	if err := storage.ValidateImage(fh, storage.MaxAvatarSize); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable avatar file")
	}
	defer src.Close()

	user, err := h.users.UpdateAvatar(c.Request().Context(), caller, services.FileUpload{Filename: fh.Filename, Content: src})
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, user)
}

func (h *UserHandler) DeleteAvatar(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	user, err := h.users.DeleteAvatar(c.Request().Context(), caller)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, user)
}

// DeleteAccount removes the caller and everything they own
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	if err := h.users.Delete(c.Request().Context(), caller); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
