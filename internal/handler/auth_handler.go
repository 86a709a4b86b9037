package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"memoboard/internal/domain"
	"memoboard/internal/middleware"
	"memoboard/internal/service"
	"memoboard/pkg/jwt"
	"memoboard/pkg/response"

	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authService *service.AuthService
	validate    *validator.Validate
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	tokenResp, err := h.authService.Login(&req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(w, response.CodeInvalidCredentials, "Invalid credentials")
			return
		}
		response.InternalError(w, "Failed to log in")
		return
	}

	response.Success(w, tokenResp)
}

// Refresh exchanges the presented, still-valid token for a fresh one.
// It reads the bearer header itself rather than sitting behind the
// auth middleware: an almost-expired token deserves a refresh, an
// expired one a distinct rejection.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		response.Unauthorized(w, response.CodeUnauthorized, "Missing or malformed authorization header")
		return
	}

	tokenResp, err := h.authService.Refresh(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			response.Unauthorized(w, response.CodeTokenExpired, "Token expired")
			return
		}
		response.Unauthorized(w, response.CodeInvalidToken, "Invalid token")
		return
	}

	response.Success(w, tokenResp)
}
