package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves the home timeline
type FeedHandler struct {
	feed *services.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService) *FeedHandler {
	return &FeedHandler{feed: feed}
}

// RegisterFeedRoutes registers feed routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group, guards Guards) {
	g.GET("/timeline", h.GetTimeline, guards.Required)
	g.GET("/posts/timeline", h.GetTimeline, guards.Required)
}

// GetTimeline returns the posts of every followed author, newest first
func (h *FeedHandler) GetTimeline(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	posts, err := h.feed.Timeline(c.Request().Context(), caller.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, posts)
}
