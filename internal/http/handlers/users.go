package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/routepulse/server/internal/repo"
)

// UserHandler handles plain user CRUD. Creation goes through registration;
// this surface only lists, fetches and deletes.
type UserHandler struct {
	users repo.UserRepo
	log   *zap.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users repo.UserRepo, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// HandleList handles GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// HandleGet handles GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// HandleDelete handles DELETE /users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}
	h.log.Info("user deleted", zap.String("user_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
