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

// FriendshipRepo defines the interface for friendship repository operations.
// Friendships are directed edges; accepting or rejecting flips only the one
// edge's status, reciprocity is never automatic.
type FriendshipRepo interface {
	Add(ctx context.Context, userID, friendID uuid.UUID) (model.Friendship, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (model.Friendship, error)
	ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.FriendInfo, error)
	ListPending(ctx context.Context, userID uuid.UUID) ([]model.FriendInfo, error)
}

type friendshipRepo struct {
	db *sql.DB
}

// NewFriendshipRepo creates a new FriendshipRepo instance
func NewFriendshipRepo(db *sql.DB) FriendshipRepo {
	return &friendshipRepo{db: db}
}

// Add upserts a friend request edge back to pending.
func (r *friendshipRepo) Add(ctx context.Context, userID, friendID uuid.UUID) (model.Friendship, error) {
	query := `
		INSERT INTO friendships (user_id, friend_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (user_id, friend_id) DO UPDATE SET status = 'pending'
		RETURNING id, user_id, friend_id, status, created_at
	`
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, userID, friendID))
	if err != nil {
		return model.Friendship{}, fmt.Errorf("failed to add friendship: %w", err)
	}
	return f, nil
}

// SetStatus flips one edge's status. Missing rows yield errs.ErrNotFound.
func (r *friendshipRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) (model.Friendship, error) {
	query := `
		UPDATE friendships
		SET status = $1
		WHERE id = $2
		RETURNING id, user_id, friend_id, status, created_at
	`
	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, status, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Friendship{}, fmt.Errorf("friendship: %w", errs.ErrNotFound)
		}
		return model.Friendship{}, fmt.Errorf("failed to update friendship: %w", err)
	}
	return f, nil
}

// ListAccepted returns the accepted friends of a user ordered by username.
func (r *friendshipRepo) ListAccepted(ctx context.Context, userID uuid.UUID) ([]model.FriendInfo, error) {
	query := `
		SELECT u.id, u.username, u.email, f.status
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1 AND f.status = 'accepted'
		ORDER BY u.username
	`
	return r.collectFriendInfo(ctx, query, userID)
}

// ListPending returns requests aimed at the user, newest first.
func (r *friendshipRepo) ListPending(ctx context.Context, userID uuid.UUID) ([]model.FriendInfo, error) {
	query := `
		SELECT u.id, u.username, u.email, f.status
		FROM friendships f
		JOIN users u ON u.id = f.user_id
		WHERE f.friend_id = $1 AND f.status = 'pending'
		ORDER BY f.created_at DESC
	`
	return r.collectFriendInfo(ctx, query, userID)
}

func (r *friendshipRepo) collectFriendInfo(ctx context.Context, query string, userID uuid.UUID) ([]model.FriendInfo, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships: %w", err)
	}
	defer rows.Close()

	infos := []model.FriendInfo{}
	for rows.Next() {
		var info model.FriendInfo
		var idStr string
		if err := rows.Scan(&idStr, &info.Username, &info.Email, &info.Status); err != nil {
			return nil, fmt.Errorf("failed to scan friend info: %w", err)
		}
		if info.ID, err = uuid.Parse(idStr); err != nil {
			return nil, fmt.Errorf("failed to parse friend ID: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func scanFriendship(row rowScanner) (model.Friendship, error) {
	var f model.Friendship
	var idStr, userStr, friendStr string
	err := row.Scan(&idStr, &userStr, &friendStr, &f.Status, &f.CreatedAt)
	if err != nil {
		return model.Friendship{}, err
	}
	if f.ID, err = uuid.Parse(idStr); err != nil {
		return model.Friendship{}, fmt.Errorf("failed to parse friendship ID: %w", err)
	}
	if f.UserID, err = uuid.Parse(userStr); err != nil {
		return model.Friendship{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	if f.FriendID, err = uuid.Parse(friendStr); err != nil {
		return model.Friendship{}, fmt.Errorf("failed to parse friend ID: %w", err)
	}
	return f, nil
}
