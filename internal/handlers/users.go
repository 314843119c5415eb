package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/AnshRaj112/tastetracker-backend/internal/apperror"
	"github.com/AnshRaj112/tastetracker-backend/internal/repositories/users"
)

type PushTokenRequest struct {
	Token string `json:"token" validate:"notblank"`
}

// PushTokenStore persists the device token used for push notifications.
type PushTokenStore interface {
	SetPushToken(ctx context.Context, id string, token *string) error
}

type UserHandler struct {
	store    PushTokenStore
	validate *validator.Validate
	log      *zap.Logger
}

func NewUserHandler(store PushTokenStore, log *zap.Logger) *UserHandler {
	return &UserHandler{store: store, validate: apperror.NewValidator(), log: log.Named("user_handler")}
}

// SetPushToken handles PUT /api/users/me/push-token. The latest token wins.
func (h *UserHandler) SetPushToken(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, apperror.FromValidator(err))
		return
	}

	token := strings.TrimSpace(req.Token)
	if err := h.store.SetPushToken(r.Context(), s.UserID, &token); err != nil {
		h.writeStoreError(w, err)
		return
	}
	h.log.Info("push token registered", zap.String("user_id", s.UserID))
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Push token saved"})
}

// ClearPushToken handles DELETE /api/users/me/push-token.
func (h *UserHandler) ClearPushToken(w http.ResponseWriter, r *http.Request) {
	s, ok := mustSession(w, r)
	if !ok {
		return
	}
	if err := h.store.SetPushToken(r.Context(), s.UserID, nil); err != nil {
		h.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "Push token removed"})
}

func (h *UserHandler) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, users.ErrNotFound) {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeInternal(w, h.log, "push token update failed", err)
}
