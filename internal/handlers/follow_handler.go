package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	graph *services.SocialGraphService
	users *services.UserService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(graph *services.SocialGraphService, users *services.UserService) *FollowHandler {
	return &FollowHandler{graph: graph, users: users}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group, guards Guards) {
	g.POST("/users/:profileName/follow", h.FollowUser, guards.Required)
	g.DELETE("/users/:profileName/follow", h.UnfollowUser, guards.Required)
	g.GET("/users/:profileName/follow", h.IsFollowing, guards.Required)
	g.GET("/users/:profileName/followers", h.GetFollowers, guards.Optional)
	g.GET("/users/:profileName/following", h.GetFollowing, guards.Optional)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	follow, err := h.graph.Follow(c.Request().Context(), caller, c.Param("profileName"))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, echo.Map{"following": true, "follow": follow})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	if err := h.graph.Unfollow(c.Request().Context(), caller, c.Param("profileName")); err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"following": false})
}

func (h *FollowHandler) IsFollowing(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	following, err := h.graph.IsFollowing(c.Request().Context(), caller.ID, c.Param("profileName"))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, echo.Map{"following": following})
}

func (h *FollowHandler) GetFollowers(c echo.Context) error {
	user, err := h.users.GetByProfileName(c.Request().Context(), c.Param("profileName"))
	if err != nil {
		return httpError(c, err)
	}
	followers, err := h.graph.Followers(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, followers)
}

func (h *FollowHandler) GetFollowing(c echo.Context) error {
	user, err := h.users.GetByProfileName(c.Request().Context(), c.Param("profileName"))
	if err != nil {
		return httpError(c, err)
	}
	following, err := h.graph.Following(c.Request().Context(), user.ID)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, following)
}
