package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles like-related HTTP requests
type LikeHandler struct {
	engagement *services.EngagementService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(engagement *services.EngagementService) *LikeHandler {
	return &LikeHandler{engagement: engagement}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group, guards Guards) {
	g.GET("/posts/:id/likes", h.GetLikes, guards.Optional)
	g.GET("/posts/:id/likes/me", h.GetMyLike, guards.Required)
	g.POST("/posts/:id/likes", h.LikePost, guards.Required)
	g.DELETE("/posts/:id/likes", h.UnlikePost, guards.Required)
}

func (h *LikeHandler) GetLikes(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	likes, err := h.engagement.Likes(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, likes)
}

// GetMyLike reports whether the caller likes the post
func (h *LikeHandler) GetMyLike(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	liked, err := h.engagement.HasLiked(c.Request().Context(), id, caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"liked": liked})
}

// LikePost likes a post; a second like is a 409
func (h *LikeHandler) LikePost(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	reaction, err := h.engagement.LikePost(c.Request().Context(), caller, id)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, reaction)
}

func (h *LikeHandler) UnlikePost(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.engagement.UnlikePost(c.Request().Context(), caller, id); err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"liked": false})
}
