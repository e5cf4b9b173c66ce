package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/repo"
)

// SensorDataHandler handles telemetry uploads and retrieval.
type SensorDataHandler struct {
	sensorData repo.SensorDataRepo
	scores     repo.ScoreRepo
	log        *zap.Logger
}

// NewSensorDataHandler creates a new sensor data handler
func NewSensorDataHandler(sensorData repo.SensorDataRepo, scores repo.ScoreRepo, log *zap.Logger) *SensorDataHandler {
	return &SensorDataHandler{
		sensorData: sensorData,
		scores:     scores,
		log:        log,
	}
}

// bulkSensorDataRequest is the request body for POST /sensor-data/bulk
type bulkSensorDataRequest struct {
	ScoreID uuid.UUID               `json:"score_id"`
	Data    []repo.CreateSensorData `json:"data"`
}

// bulkSensorDataResponse reports how many samples were persisted.
type bulkSensorDataResponse struct {
	Message       string `json:"message"`
	InsertedCount int    `json:"inserted_count"`
}

// HandleBulkUpload handles POST /sensor-data/bulk. The batch is inserted
// all-or-nothing: a single bad row rolls back every row. The parent score
// check runs outside the transaction; since no deletion path exists for
// scores the race is benign.
func (h *SensorDataHandler) HandleBulkUpload(w http.ResponseWriter, r *http.Request) {
	var req bulkSensorDataRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}
	if req.ScoreID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "score_id is required")
		return
	}

	exists, err := h.scores.Exists(r.Context(), req.ScoreID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "not found")
		return
	}

	inserted, err := h.sensorData.CreateBatch(r.Context(), req.ScoreID, req.Data)
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	h.log.Info("sensor data batch inserted",
		zap.String("score_id", req.ScoreID.String()),
		zap.Int("count", inserted))
	respondJSON(w, http.StatusOK, bulkSensorDataResponse{
		Message:       "Sensor data uploaded successfully",
		InsertedCount: inserted,
	})
}

// HandleUpload handles POST /sensor-data/score/{score_id} for a single sample.
func (h *SensorDataHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	scoreID, err := uuidParam(r, "score_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}

	var req repo.CreateSensorData
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.log, err)
		return
	}

	exists, err := h.scores.Exists(r.Context(), scoreID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	if !exists {
		respondWithError(w, http.StatusNotFound, "not found")
		return
	}

	sd, err := h.sensorData.Create(r.Context(), scoreID, req)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sd)
}

// HandleGetByScore handles GET /sensor-data/score/{score_id}
func (h *SensorDataHandler) HandleGetByScore(w http.ResponseWriter, r *http.Request) {
	scoreID, err := uuidParam(r, "score_id")
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	samples, err := h.sensorData.ListByScore(r.Context(), scoreID)
	if err != nil {
		respondError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, samples)
}
