package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/routepulse/server/internal/errs"
	"github.com/routepulse/server/internal/model"
)

// ChallengeRepo defines the interface for challenge repository operations
type ChallengeRepo interface {
	Create(ctx context.Context, routeID, challengerID uuid.UUID, challengedID *uuid.UUID) (model.Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Challenge, error)

	// Accept transitions pending -> active as a conditional update. Any
	// challenge not currently pending matches zero rows and yields
	// errs.ErrNotFound, leaving the stored status untouched.
	Accept(ctx context.Context, id uuid.UUID) (model.Challenge, error)

	// UpdateInTx locks the challenge row, passes the current state to merge,
	// and persists the returned state, all inside one transaction.
	UpdateInTx(ctx context.Context, id uuid.UUID, merge func(model.Challenge) (model.Challenge, error)) (model.Challenge, error)

	// ListAvailable returns the open-challenge inbox: pending challenges with
	// no designated opponent, newest first.
	ListAvailable(ctx context.Context) ([]model.Challenge, error)
}

type challengeRepo struct {
	db *sql.DB
}

// NewChallengeRepo creates a new ChallengeRepo instance
func NewChallengeRepo(db *sql.DB) ChallengeRepo {
	return &challengeRepo{db: db}
}

const challengeColumns = `id, route_id, challenger_id, challenged_id, status,
	challenger_time, challenged_time, winner_id, created_at, completed_at`

// Create inserts a challenge in the pending state. No uniqueness constraint
// prevents multiple simultaneous challenges on the same route.
func (r *challengeRepo) Create(ctx context.Context, routeID, challengerID uuid.UUID, challengedID *uuid.UUID) (model.Challenge, error) {
	query := `
		INSERT INTO challenges (route_id, challenger_id, challenged_id, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING ` + challengeColumns
	ch, err := scanChallenge(r.db.QueryRowContext(ctx, query, routeID, challengerID, challengedID))
	if err != nil {
		return model.Challenge{}, fmt.Errorf("failed to insert challenge: %w", err)
	}
	return ch, nil
}

// GetByID retrieves a challenge by ID
func (r *challengeRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1`
	ch, err := scanChallenge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Challenge{}, fmt.Errorf("challenge: %w", errs.ErrNotFound)
		}
		return model.Challenge{}, fmt.Errorf("failed to query challenge: %w", err)
	}
	return ch, nil
}

func (r *challengeRepo) Accept(ctx context.Context, id uuid.UUID) (model.Challenge, error) {
	query := `
		UPDATE challenges
		SET status = 'active'
		WHERE id = $1 AND status = 'pending'
		RETURNING ` + challengeColumns
	ch, err := scanChallenge(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Challenge{}, fmt.Errorf("no pending challenge with this id: %w", errs.ErrNotFound)
		}
		return model.Challenge{}, fmt.Errorf("failed to accept challenge: %w", err)
	}
	return ch, nil
}

func (r *challengeRepo) UpdateInTx(ctx context.Context, id uuid.UUID, merge func(model.Challenge) (model.Challenge, error)) (model.Challenge, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Challenge{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + challengeColumns + ` FROM challenges WHERE id = $1 FOR UPDATE`
	current, err := scanChallenge(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Challenge{}, fmt.Errorf("challenge: %w", errs.ErrNotFound)
		}
		return model.Challenge{}, fmt.Errorf("failed to lock challenge: %w", err)
	}

	merged, err := merge(current)
	if err != nil {
		return model.Challenge{}, err
	}

	updateQuery := `
		UPDATE challenges
		SET status = $1, challenger_time = $2, challenged_time = $3,
		    winner_id = $4, completed_at = $5
		WHERE id = $6
		RETURNING ` + challengeColumns
	updated, err := scanChallenge(tx.QueryRowContext(ctx, updateQuery,
		merged.Status, merged.ChallengerTime, merged.ChallengedTime,
		merged.WinnerID, merged.CompletedAt, id))
	if err != nil {
		return model.Challenge{}, fmt.Errorf("failed to update challenge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to commit challenge update: %w", err)
	}
	return updated, nil
}

func (r *challengeRepo) ListAvailable(ctx context.Context) ([]model.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE status = 'pending' AND challenged_id IS NULL
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query available challenges: %w", err)
	}
	defer rows.Close()

	challenges := []model.Challenge{}
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}
	return challenges, rows.Err()
}

func scanChallenge(row rowScanner) (model.Challenge, error) {
	var ch model.Challenge
	var idStr, routeStr, challengerStr string
	var challengedStr, winnerStr sql.NullString
	err := row.Scan(
		&idStr,
		&routeStr,
		&challengerStr,
		&challengedStr,
		&ch.Status,
		&ch.ChallengerTime,
		&ch.ChallengedTime,
		&winnerStr,
		&ch.CreatedAt,
		&ch.CompletedAt,
	)
	if err != nil {
		return model.Challenge{}, err
	}
	if ch.ID, err = uuid.Parse(idStr); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to parse challenge ID: %w", err)
	}
	if ch.RouteID, err = uuid.Parse(routeStr); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to parse route ID: %w", err)
	}
	if ch.ChallengerID, err = uuid.Parse(challengerStr); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to parse challenger ID: %w", err)
	}
	if ch.ChallengedID, err = parseNullUUID(challengedStr); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to parse challenged ID: %w", err)
	}
	if ch.WinnerID, err = parseNullUUID(winnerStr); err != nil {
		return model.Challenge{}, fmt.Errorf("failed to parse winner ID: %w", err)
	}
	return ch, nil
}

func parseNullUUID(s sql.NullString) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
