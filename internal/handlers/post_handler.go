package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/anonto42/nano-midea/socialgraph/internal/storage"
	"github.com/labstack/echo/v4"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts      *services.PostService
	engagement *services.EngagementService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService, engagement *services.EngagementService) *PostHandler {
	return &PostHandler{posts: posts, engagement: engagement}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group, guards Guards) {
	g.POST("/posts", h.CreatePost, guards.Required)
	g.GET("/posts", h.GetPosts, guards.Optional)
	g.GET("/posts/:id", h.GetPost, guards.Optional)
	g.PATCH("/posts/:id", h.UpdatePost, guards.Required)
	g.DELETE("/posts/:id", h.DeletePost, guards.Required)
}

// CreatePost accepts multipart form data: "caption" and one to five images in "files"
func (h *PostHandler) CreatePost(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}

	var req models.CreatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Multipart form data is required")
	}
	headers := form.File["files"]
	if len(headers) == 0 || len(headers) > storage.MaxMediaPerPost {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Between 1 and %d files are required", storage.MaxMediaPerPost))
	}

	uploads := make([]services.FileUpload, 0, len(headers))
	for _, fh := range headers {
		if err := storage.ValidateImage(fh, storage.MaxMediaSize); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	for _, fh := range headers {
		src, err := fh.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file "+fh.Filename)
		}
		defer func(f multipart.File) { f.Close() }(src)
		uploads = append(uploads, services.FileUpload{Filename: fh.Filename, Content: src})
	}

	post, err := h.posts.CreatePost(c.Request().Context(), caller, req.Caption, uploads)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, post)
}

// GetPosts pages over all posts with ?offset= and ?limit=
func (h *PostHandler) GetPosts(c echo.Context) error {
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	posts, err := h.posts.ListPosts(c.Request().Context(), viewerID(c), offset, limit)
	if err != nil {
		return httpError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    posts,
		"offset":  offset,
		"limit":   limit,
	})
}

func (h *PostHandler) GetPost(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	post, err := h.posts.GetPost(c.Request().Context(), id, viewerID(c))
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, post)
}

type updatePostRequest struct {
	Caption string `json:"caption" validate:"max=2200"`
}

// UpdatePost changes the caption
func (h *PostHandler) UpdatePost(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req updatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	post, err := h.posts.UpdateCaption(c.Request().Context(), caller, id, req.Caption)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusOK, post)
}

func (h *PostHandler) DeletePost(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.engagement.DeletePost(c.Request().Context(), caller, id); err != nil {
		return httpError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
