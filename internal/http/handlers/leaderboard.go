package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/routepulse/server/internal/repo"
)

// LeaderboardHandler exposes the best-per-user rankings. Read-only, no
// ownership checks, capped at 100 rows each.
type LeaderboardHandler struct {
	leaderboards repo.LeaderboardRepo
	log          *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboards repo.LeaderboardRepo, log *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards, log: log}
}

// HandleRoute handles GET /leaderboard/route/{route_id}
func (h *LeaderboardHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	routeID, err := uuidParam(r, "route_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	entries, err := h.leaderboards.RouteLeaderboard(r.Context(), routeID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

// HandleGlobalSpeed handles GET /leaderboard/global/speed
func (h *LeaderboardHandler) HandleGlobalSpeed(w http.ResponseWriter, r *http.Request) {
	entries, err := h.leaderboards.GlobalSpeedLeaderboard(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
