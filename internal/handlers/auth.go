package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/models"
	"github.com/AnshRaj112/tastetracker-backend/internal/services"
)

type AuthResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Token   string       `json:"token,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type AuthHandler struct {
	auth *services.AuthService
	log  *zap.Logger
}

func NewAuthHandler(auth *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log.Named("auth_handler")}
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case writeValidation(w, err):
	case errors.Is(err, services.ErrEmailTaken):
		writeError(w, http.StatusConflict, "An account with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrResetTokenInvalid):
		writeError(w, http.StatusBadRequest, "Reset link is invalid or has expired")
	default:
		writeInternal(w, h.log, "auth request failed", err)
	}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req services.SignUpInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, sess, err := h.auth.SignUp(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   sess.Token,
		User:    user,
	})
}

// SignIn handles POST /api/auth/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req services.SignInInput
	if !decodeJSON(w, r, &req) {
		return
	}
	user, sess, err := h.auth.SignIn(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   sess.Token,
		User:    user,
	})
}

// SignOut handles POST /api/auth/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	if err := h.auth.SignOut(r.Context(), s); err != nil {
		writeInternal(w, h.log, "sign out failed", err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Signed out"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	user, err := h.auth.Profile(r.Context(), s.UserID)
	if err != nil {
		writeInternal(w, h.log, "profile lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Success: true, User: user})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: services.ForgotPasswordMessage})
}

// ResetPassword handles POST /api/auth/reset-password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req services.ResetPasswordInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Password has been reset. Please sign in."})
}
