package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/routepulse/server/internal/middleware"
	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/repo"
)

// FriendHandler manages the directed friendship edges of the caller.
type FriendHandler struct {
	friendships repo.FriendshipRepo
	users       repo.UserRepo
	log         *zap.Logger
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendships repo.FriendshipRepo, users repo.UserRepo, log *zap.Logger) *FriendHandler {
	return &FriendHandler{
		friendships: friendships,
		users:       users,
		log:         log,
	}
}

// HandleList handles GET /friends
func (h *FriendHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	friends, err := h.friendships.ListAccepted(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, friends)
}

// HandleAdd handles POST /friends/add/{friend_id}
func (h *FriendHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	friendID, err := uuidParam(r, "friend_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	exists, err := h.users.Exists(r.Context(), friendID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "not found")
		return
	}

	friendship, err := h.friendships.Add(r.Context(), claims.UserID, friendID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("friend request sent",
		zap.String("user_id", claims.UserID.String()),
		zap.String("friend_id", friendID.String()))
	respondJSON(w, http.StatusOK, friendship)
}

// HandleAccept handles PUT /friends/accept/{friendship_id}
func (h *FriendHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.FriendshipStatusAccepted)
}

// HandleReject handles PUT /friends/reject/{friendship_id}
func (h *FriendHandler) HandleReject(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, model.FriendshipStatusRejected)
}

// setStatus flips one edge's status; the reverse edge is never touched.
func (h *FriendHandler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, err := uuidParam(r, "friendship_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	friendship, err := h.friendships.SetStatus(r.Context(), id, status)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, friendship)
}

// HandlePending handles GET /friends/pending
func (h *FriendHandler) HandlePending(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	pending, err := h.friendships.ListPending(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, pending)
}
