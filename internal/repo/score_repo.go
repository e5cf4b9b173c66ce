package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/routepulse/server/internal/model"
)

// CreateScore carries the telemetry summaries of one timed run.
type CreateScore struct {
	TimeSeconds           float64  `json:"time_seconds"`
	MaxSpeedKmh           *float64 `json:"max_speed_kmh"`
	AvgSpeedKmh           *float64 `json:"avg_speed_kmh"`
	MaxGForce             *float64 `json:"max_g_force"`
	MaxInclinationDegrees *float64 `json:"max_inclination_degrees"`
	MaxSoundDb            *float64 `json:"max_sound_db"`
}

// ScoreRepo defines the interface for score repository operations.
// Scores are immutable once created; repeat submissions add rows and the
// leaderboard picks the best.
type ScoreRepo interface {
	Create(ctx context.Context, routeID, userID uuid.UUID, s CreateScore) (model.Score, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type scoreRepo struct {
	db *sql.DB
}

// NewScoreRepo creates a new ScoreRepo instance
func NewScoreRepo(db *sql.DB) ScoreRepo {
	return &scoreRepo{db: db}
}

// Create inserts one score row for a submission.
func (r *scoreRepo) Create(ctx context.Context, routeID, userID uuid.UUID, s CreateScore) (model.Score, error) {
	query := `
		INSERT INTO scores (route_id, user_id, time_seconds, max_speed_kmh, avg_speed_kmh,
		                    max_g_force, max_inclination_degrees, max_sound_db)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	score := model.Score{
		RouteID:               routeID,
		UserID:                userID,
		TimeSeconds:           s.TimeSeconds,
		MaxSpeedKmh:           s.MaxSpeedKmh,
		AvgSpeedKmh:           s.AvgSpeedKmh,
		MaxGForce:             s.MaxGForce,
		MaxInclinationDegrees: s.MaxInclinationDegrees,
		MaxSoundDb:            s.MaxSoundDb,
	}
	var idStr string
	err := r.db.QueryRowContext(ctx, query,
		routeID, userID, s.TimeSeconds, s.MaxSpeedKmh, s.AvgSpeedKmh,
		s.MaxGForce, s.MaxInclinationDegrees, s.MaxSoundDb,
	).Scan(&idStr, &score.CreatedAt)
	if err != nil {
		return model.Score{}, fmt.Errorf("failed to insert score: %w", err)
	}
	score.ID, err = uuid.Parse(idStr)
	if err != nil {
		return model.Score{}, fmt.Errorf("failed to parse score ID: %w", err)
	}
	return score, nil
}

// Exists reports whether a score with the given ID exists.
func (r *scoreRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM scores WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check score existence: %w", err)
	}
	return exists, nil
}
