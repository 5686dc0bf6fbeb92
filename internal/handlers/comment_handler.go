package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles comment-related HTTP requests
type CommentHandler struct {
	engagement *services.EngagementService
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(engagement *services.EngagementService) *CommentHandler {
	return &CommentHandler{engagement: engagement}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group, guards Guards) {
	g.GET("/posts/:id/comments", h.GetComments, guards.Optional)
	g.POST("/posts/:id/comments", h.CreateComment, guards.Required)
	g.DELETE("/posts/:id/comments/:commentId", h.DeletePostComment, guards.Required)
	g.DELETE("/comments/:commentId", h.DeleteComment, guards.Required)
}

func (h *CommentHandler) GetComments(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.engagement.Comments(c.Request().Context(), id)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, comments)
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	comment, err := h.engagement.CreateComment(c.Request().Context(), caller, id, req.Text)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, comment)
}

// DeletePostComment is the nested form of DeleteComment
func (h *CommentHandler) DeletePostComment(c echo.Context) error {
	if _, err := idParam(c, "id"); err != nil {
		return err
	}
	return h.DeleteComment(c)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "commentId")
	if err != nil {
		return err
	}
	if err := h.engagement.DeleteComment(c.Request().Context(), caller, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
