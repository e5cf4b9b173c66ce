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

// PostRepo defines the interface for post repository operations
type PostRepo interface {
	Create(ctx context.Context, userID uuid.UUID, title, body string) (model.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Post, error)
	List(ctx context.Context) ([]model.Post, error)
	Update(ctx context.Context, id, userID uuid.UUID, title, body string) (model.Post, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type postRepo struct {
	db *sql.DB
}

// NewPostRepo creates a new PostRepo instance
func NewPostRepo(db *sql.DB) PostRepo {
	return &postRepo{db: db}
}

func (r *postRepo) Create(ctx context.Context, userID uuid.UUID, title, body string) (model.Post, error) {
	query := `
		INSERT INTO posts (user_id, title, body)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, title, body
	`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, userID, title, body))
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to insert post: %w", err)
	}
	return post, nil
}

func (r *postRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Post, error) {
	query := `SELECT id, user_id, title, body FROM posts WHERE id = $1`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, fmt.Errorf("post: %w", errs.ErrNotFound)
		}
		return model.Post{}, fmt.Errorf("failed to query post: %w", err)
	}
	return post, nil
}

func (r *postRepo) List(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, title, body FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepo) Update(ctx context.Context, id, userID uuid.UUID, title, body string) (model.Post, error) {
	query := `
		UPDATE posts
		SET title = $1, body = $2, user_id = $3
		WHERE id = $4
		RETURNING id, user_id, title, body
	`
	post, err := scanPost(r.db.QueryRowContext(ctx, query, title, body, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, fmt.Errorf("post: %w", errs.ErrNotFound)
		}
		return model.Post{}, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

func (r *postRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("post: %w", errs.ErrNotFound)
	}
	return nil
}

func scanPost(row rowScanner) (model.Post, error) {
	var post model.Post
	var idStr, userStr string
	err := row.Scan(&idStr, &userStr, &post.Title, &post.Body)
	if err != nil {
		return model.Post{}, err
	}
	if post.ID, err = uuid.Parse(idStr); err != nil {
		return model.Post{}, fmt.Errorf("failed to parse post ID: %w", err)
	}
	if post.UserID, err = uuid.Parse(userStr); err != nil {
		return model.Post{}, fmt.Errorf("failed to parse user ID: %w", err)
	}
	return post, nil
}
