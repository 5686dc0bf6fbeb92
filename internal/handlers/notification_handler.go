package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/notifications"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications *notifications.Service
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(svc *notifications.Service) *NotificationHandler {
	return &NotificationHandler{notifications: svc}
}

// RegisterNotificationRoutes registers notification routes. All of them
// require authentication.
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, guards Guards) {
	g.GET("/notifications", h.GetNotifications, guards.Required)
	g.GET("/notifications/unread-count", h.GetUnreadCount, guards.Required)
	g.PUT("/notifications/read-all", h.MarkAllAsRead, guards.Required)
	g.GET("/notifications/preferences", h.GetPreferences, guards.Required)
	g.PUT("/notifications/preferences/follow", h.UpdateFollowPreference, guards.Required)
	g.PUT("/notifications/preferences/posts", h.UpdatePostPreference, guards.Required)
	g.POST("/notifications/tokens", h.RegisterToken, guards.Required)
	g.DELETE("/notifications/tokens/:token", h.DeleteToken, guards.Required)
	g.GET("/notifications/:id", h.GetNotification, guards.Required)
	g.PUT("/notifications/:id/read", h.MarkAsRead, guards.Required)
}

// GetNotifications lists the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.List(c.Request().Context(), caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, list)
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.List(c.Request().Context(), caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	unread := 0
	for _, n := range list {
		if !n.Read {
			unread++
		}
	}
	return success(c, http.StatusOK, echo.Map{"count": unread})
}

func (h *NotificationHandler) GetNotification(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.Get(c.Request().Context(), caller.ID, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAsRead(c.Request().Context(), caller.ID, c.Param("id"))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, n)
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	list, err := h.notifications.MarkAllAsRead(c.Request().Context(), caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, list)
}

func (h *NotificationHandler) GetPreferences(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	prefs, err := h.notifications.Preferences(c.Request().Context(), caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, prefs)
}

func (h *NotificationHandler) UpdateFollowPreference(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req models.FollowPreferenceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.notifications.UpdateFollowPreference(c.Request().Context(), caller.ID, *req.Enabled); err != nil {
		return httpError(c, err)
	}
	return h.GetPreferences(c)
}

// UpdatePostPreference toggles NEW_POST pushes for one author
func (h *NotificationHandler) UpdatePostPreference(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req models.PostPreferenceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.notifications.UpdatePostPreference(c.Request().Context(), caller.ID, req.AuthorID, *req.Enabled); err != nil {
		return httpError(c, err)
	}
	return h.GetPreferences(c)
}

// RegisterToken stores a device token and subscribes it to followed authors
func (h *NotificationHandler) RegisterToken(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req models.RegisterTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	token, err := h.notifications.StoreToken(c.Request().Context(), caller.ID, req.Token)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"token": req.Token, "timestamp": token.Timestamp})
}

func (h *NotificationHandler) DeleteToken(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	if err := h.notifications.DeleteToken(c.Request().Context(), caller.ID, c.Param("token")); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
