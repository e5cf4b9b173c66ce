package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/repo"
)

// PostHandler handles plain post CRUD.
type PostHandler struct {
	posts repo.PostRepo
	log   *zap.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(posts repo.PostRepo, log *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, log: log}
}

type postRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
}

// HandleList handles GET /posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, posts)
}

// HandleGet handles GET /posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// HandleCreate handles POST /posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	post, err := h.posts.Create(r.Context(), req.UserID, req.Title, req.Body)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// HandleUpdate handles PUT /posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	var req postRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	post, err := h.posts.Update(r.Context(), id, req.UserID, req.Title, req.Body)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, post)
}

// HandleDelete handles DELETE /posts/{id}
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if err := h.posts.Delete(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Post deleted successfully"})
}
