package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/routepulse/server/internal/model"
)

// leaderboardCap bounds every ranking to its top entries.
const leaderboardCap = 100

// LeaderboardRepo computes best-per-user rankings. Each user contributes at
// most one entry: their single best qualifying score.
type LeaderboardRepo interface {
	// RouteLeaderboard ranks each user's lowest time on the route, ascending.
	RouteLeaderboard(ctx context.Context, routeID uuid.UUID) ([]model.LeaderboardEntry, error)

	// GlobalSpeedLeaderboard ranks each user's highest max_speed_kmh across
	// all routes, descending, restricted to scores where the field is set.
	GlobalSpeedLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

type leaderboardRepo struct {
	db *sql.DB
}

// NewLeaderboardRepo creates a new LeaderboardRepo instance
func NewLeaderboardRepo(db *sql.DB) LeaderboardRepo {
	return &leaderboardRepo{db: db}
}

// Ties on the ranking key break by earliest created_at, then user_id, so
// ordering is deterministic across equal values.
func (r *leaderboardRepo) RouteLeaderboard(ctx context.Context, routeID uuid.UUID) ([]model.LeaderboardEntry, error) {
	query := `
		SELECT best.user_id, u.username, best.time_seconds, best.max_speed_kmh, best.created_at
		FROM (
			SELECT DISTINCT ON (s.user_id)
				s.user_id, s.time_seconds, s.max_speed_kmh, s.created_at
			FROM scores s
			WHERE s.route_id = $1
			ORDER BY s.user_id, s.time_seconds ASC, s.created_at ASC
		) best
		JOIN users u ON u.id = best.user_id
		ORDER BY best.time_seconds ASC, best.created_at ASC, best.user_id ASC
		LIMIT $2`
	return r.collect(ctx, query, routeID, leaderboardCap)
}

func (r *leaderboardRepo) GlobalSpeedLeaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	query := `
		SELECT best.user_id, u.username, best.time_seconds, best.max_speed_kmh, best.created_at
		FROM (
			SELECT DISTINCT ON (s.user_id)
				s.user_id, s.time_seconds, s.max_speed_kmh, s.created_at
			FROM scores s
			WHERE s.max_speed_kmh IS NOT NULL
			ORDER BY s.user_id, s.max_speed_kmh DESC, s.created_at ASC
		) best
		JOIN users u ON u.id = best.user_id
		ORDER BY best.max_speed_kmh DESC, best.created_at ASC, best.user_id ASC
		LIMIT $1`
	return r.collect(ctx, query, leaderboardCap)
}

func (r *leaderboardRepo) collect(ctx context.Context, query string, args ...any) ([]model.LeaderboardEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var entry model.LeaderboardEntry
		var userStr string
		if err := rows.Scan(&userStr, &entry.Username, &entry.TimeSeconds, &entry.MaxSpeedKmh, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		if entry.UserID, err = uuid.Parse(userStr); err != nil {
			return nil, fmt.Errorf("failed to parse user ID: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
