package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"github.com/anonto42/nano-midea/socialgraph/internal/models"
	"github.com/anonto42/nano-midea/socialgraph/internal/services"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users *services.UserService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.users.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(c, err)
	}
	return success(c, http.StatusCreated, res)
}

// SignIn handles local user login with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.users.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return credentialsError(c, err)
	}
	return success(c, http.StatusOK, res)
}

// FirebaseLogin exchanges a Firebase ID token for a local session
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.users.LoginWithFirebase(c.Request().Context(), req.IDToken, req.ProfileName)
	if err != nil {
		return credentialsError(c, err)
	}
	return success(c, http.StatusOK, res)
}

// credentialsError reports rejected credentials as 401 instead of 403
func credentialsError(c echo.Context, err error) error {
	if errors.Is(err, apperror.ErrUnauthorized) {
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return httpError(c, err)
}
