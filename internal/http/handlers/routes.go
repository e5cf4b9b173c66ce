package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
	"github.com/routepulse/server/internal/middleware"
	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/patch"
	"github.com/routepulse/server/internal/repo"
)

// RouteHandler handles route CRUD, ownership-guarded mutations and score
// submission.
type RouteHandler struct {
	routes repo.RouteRepo
	scores repo.ScoreRepo
	log    *zap.Logger
}

// NewRouteHandler creates a new route handler
func NewRouteHandler(routes repo.RouteRepo, scores repo.ScoreRepo, log *zap.Logger) *RouteHandler {
	return &RouteHandler{
		routes: routes,
		scores: scores,
		log:    log,
	}
}

// createRouteRequest is the request body for POST /routes
type createRouteRequest struct {
	Name           string          `json:"name"`
	Description    *string         `json:"description"`
	IsPublic       bool            `json:"is_public"`
	PathData       json.RawMessage `json:"path_data"`
	DistanceMeters *float64        `json:"distance_meters"`
}

// updateRouteRequest is the request body for PUT /routes/{id}; every field is
// optional and omitted fields retain their stored values.
type updateRouteRequest struct {
	Name           *string          `json:"name"`
	Description    *string          `json:"description"`
	IsPublic       *bool            `json:"is_public"`
	PathData       *json.RawMessage `json:"path_data"`
	DistanceMeters *float64         `json:"distance_meters"`
}

// HandleCreate handles POST /routes
func (h *RouteHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	if req.Name == "" || len(req.PathData) == 0 {
		respondWithError(w, http.StatusBadRequest, "name and path_data are required")
		return
	}

	route, err := h.routes.Create(r.Context(), claims.UserID, req.Name, req.Description,
		req.IsPublic, req.PathData, req.DistanceMeters)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("route created",
		zap.String("route_id", route.ID.String()),
		zap.String("user_id", claims.UserID.String()))
	respondJSON(w, http.StatusOK, route)
}

// HandleList handles GET /routes with optional user_id and is_public filters
func (h *RouteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	var filter repo.RouteFilter
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid user_id filter")
			return
		}
		filter.UserID = &id
	}
	if v := r.URL.Query().Get("is_public"); v != "" {
		isPublic, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid is_public filter")
			return
		}
		filter.IsPublic = &isPublic
	}

	routes, err := h.routes.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// HandleGet handles GET /routes/{id}
func (h *RouteHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	route, err := h.routes.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, route)
}

// HandleListByUser handles GET /routes/user/{user_id}
func (h *RouteHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuidParam(r, "user_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	routes, err := h.routes.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// HandleListPublic handles GET /routes/public
func (h *RouteHandler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	routes, err := h.routes.ListPublic(r.Context())
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, routes)
}

// HandleUpdate handles PUT /routes/{id}. Lookup precedes the ownership check:
// an unknown route yields 404 even to its would-be owner, an existing route
// owned by someone else yields 403.
func (h *RouteHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req updateRouteRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	owner, err := h.routes.OwnerOf(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if err := auth.AuthorizeMutation(owner, claims.UserID); err != nil {
		h.log.Warn("route mutation denied",
			zap.String("route_id", id.String()),
			zap.String("caller_id", claims.UserID.String()))
		respondError(w, h.log, err)
		return
	}

	p := model.RoutePatch{
		Name:           patch.FromPtr(req.Name),
		Description:    patch.FromPtr(req.Description),
		IsPublic:       patch.FromPtr(req.IsPublic),
		PathData:       patch.FromPtr(req.PathData),
		DistanceMeters: patch.FromPtr(req.DistanceMeters),
	}
	route, err := h.routes.Update(r.Context(), id, p)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("route updated", zap.String("route_id", id.String()))
	respondJSON(w, http.StatusOK, route)
}

// HandleDelete handles DELETE /routes/{id} with the same ownership rule as update.
func (h *RouteHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	owner, err := h.routes.OwnerOf(r.Context(), id)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if err := auth.AuthorizeMutation(owner, claims.UserID); err != nil {
		h.log.Warn("route deletion denied",
			zap.String("route_id", id.String()),
			zap.String("caller_id", claims.UserID.String()))
		respondError(w, h.log, err)
		return
	}

	if err := h.routes.Delete(r.Context(), id); err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("route deleted", zap.String("route_id", id.String()))
	respondJSON(w, http.StatusOK, map[string]string{"message": "Route deleted successfully"})
}

// HandleSubmitScore handles POST /routes/{id}/score
func (h *RouteHandler) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	routeID, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req repo.CreateScore
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	exists, err := h.routes.Exists(r.Context(), routeID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "not found")
		return
	}

	score, err := h.scores.Create(r.Context(), routeID, claims.UserID, req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("score submitted",
		zap.String("score_id", score.ID.String()),
		zap.String("route_id", routeID.String()),
		zap.Float64("time_seconds", score.TimeSeconds))
	respondJSON(w, http.StatusOK, score)
}
