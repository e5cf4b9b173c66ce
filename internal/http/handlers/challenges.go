package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/challenge"
	"github.com/routepulse/server/internal/middleware"
	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/patch"
)

// ChallengeHandler exposes the challenge state machine.
type ChallengeHandler struct {
	engine *challenge.Engine
	log    *zap.Logger
}

// NewChallengeHandler creates a new challenge handler
func NewChallengeHandler(engine *challenge.Engine, log *zap.Logger) *ChallengeHandler {
	return &ChallengeHandler{engine: engine, log: log}
}

// createChallengeRequest is the request body for POST /challenges.
// A null or absent challenged_id creates an open challenge.
type createChallengeRequest struct {
	RouteID      uuid.UUID  `json:"route_id"`
	ChallengedID *uuid.UUID `json:"challenged_id"`
}

// completeChallengeRequest is the request body for POST /challenges/{id}/complete.
// Status and both times are independently optional; omitted fields keep
// their stored values.
type completeChallengeRequest struct {
	Status         *string  `json:"status"`
	ChallengerTime *float64 `json:"challenger_time"`
	ChallengedTime *float64 `json:"challenged_time"`
}

// HandleCreate handles POST /challenges
func (h *ChallengeHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	if req.RouteID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "route_id is required")
		return
	}

	ch, err := h.engine.Create(r.Context(), req.RouteID, claims.UserID, req.ChallengedID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

// HandleGet handles GET /challenges/{id}
func (h *ChallengeHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	ch, err := h.engine.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

// HandleAccept handles POST /challenges/{id}/accept
func (h *ChallengeHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	ch, err := h.engine.Accept(r.Context(), id, claims.UserID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

// HandleComplete handles POST /challenges/{id}/complete
func (h *ChallengeHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req completeChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	p := model.ChallengePatch{
		Status:         patch.FromPtr(req.Status),
		ChallengerTime: patch.FromPtr(req.ChallengerTime),
		ChallengedTime: patch.FromPtr(req.ChallengedTime),
	}
	ch, err := h.engine.Complete(r.Context(), id, p)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, ch)
}

// HandleAvailable handles GET /challenges/available
func (h *ChallengeHandler) HandleAvailable(w http.ResponseWriter, r *http.Request) {
	challenges, err := h.engine.Available(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, challenges)
}
