package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"
)

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator. Format rules are enforced by the auth service.
func (req RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		errs = append(errs, "email is required")
	}
	if req.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (req LoginRequest) Validate() []string {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return []string{"email and password are required"}
	}
	return nil
}

// AuthUser is the public part of a user returned with a token.
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// AuthSuccessResponse is the success response envelope for register and login.
type AuthSuccessResponse struct {
	Data  AuthResponse      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

func newAuthResponse(token string, u *domain.User) AuthResponse {
	return AuthResponse{Token: token, User: AuthUser{ID: u.ID, Name: u.Name, Email: u.Email}}
}

type AuthController struct {
	Logger  *slog.Logger
	Service domain.AuthService
}

func NewAuthController(logger *slog.Logger, svc domain.AuthService) *AuthController {
	return &AuthController{
		Logger:  logger,
		Service: svc,
	}
}

// Register godoc
// @Summary Register a user
// @Description Creates an account and returns a bearer token valid for 7 days. Passwords need at least 6 characters.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Account details"
// @Success 201 {object} controllers.AuthSuccessResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (email taken)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, newAuthResponse(token, user))
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for a bearer token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Credentials"
// @Success 200 {object} controllers.AuthSuccessResponse "data contains token and user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	token, user, err := c.Service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		helpers.WriteServiceError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, newAuthResponse(token, user))
}
