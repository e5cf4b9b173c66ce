package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/routepulse/server/internal/errs"
	"github.com/routepulse/server/internal/model"
)

// RouteFilter narrows route listings. Nil fields match everything.
type RouteFilter struct {
	UserID   *uuid.UUID
	IsPublic *bool
}

// RouteRepo defines the interface for route repository operations
type RouteRepo interface {
	Create(ctx context.Context, userID uuid.UUID, name string, description *string, isPublic bool, pathData json.RawMessage, distanceMeters *float64) (model.Route, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Route, error)
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	List(ctx context.Context, filter RouteFilter) ([]model.Route, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Route, error)
	ListPublic(ctx context.Context) ([]model.Route, error)
	Update(ctx context.Context, id uuid.UUID, p model.RoutePatch) (model.Route, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type routeRepo struct {
	db *sql.DB
}

// NewRouteRepo creates a new RouteRepo instance
func NewRouteRepo(db *sql.DB) RouteRepo {
	return &routeRepo{db: db}
}

const routeColumns = `id, user_id, name, description, is_public, path_data, distance_meters, created_at, updated_at`

// Create inserts a new route owned by userID.
func (r *routeRepo) Create(ctx context.Context, userID uuid.UUID, name string, description *string, isPublic bool, pathData json.RawMessage, distanceMeters *float64) (model.Route, error) {
	query := `
		INSERT INTO routes (user_id, name, description, is_public, path_data, distance_meters)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + routeColumns
	row := r.db.QueryRowContext(ctx, query, userID, name, description, isPublic, []byte(pathData), distanceMeters)
	route, err := scanRoute(row)
	if err != nil {
		return model.Route{}, fmt.Errorf("failed to insert route: %w", err)
	}
	return route, nil
}

// GetByID retrieves a route by ID
func (r *routeRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	route, err := scanRoute(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Route{}, fmt.Errorf("route: %w", errs.ErrNotFound)
		}
		return model.Route{}, fmt.Errorf("failed to query route: %w", err)
	}
	return route, nil
}

// OwnerOf returns the owning user ID of a route, errs.ErrNotFound if the
// route does not exist. Lookup precedes the ownership check so an unknown
// ID yields not-found even to a would-be owner.
func (r *routeRepo) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var ownerStr string
	err := r.db.QueryRowContext(ctx, `SELECT user_id FROM routes WHERE id = $1`, id).Scan(&ownerStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("route: %w", errs.ErrNotFound)
		}
		return uuid.Nil, fmt.Errorf("failed to query route owner: %w", err)
	}
	owner, err := uuid.Parse(ownerStr)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse owner ID: %w", err)
	}
	return owner, nil
}

// List returns routes matching the filter, newest first.
func (r *routeRepo) List(ctx context.Context, filter RouteFilter) ([]model.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE ($1::uuid IS NULL OR user_id = $1)
		AND ($2::boolean IS NULL OR is_public = $2)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, filter.UserID, filter.IsPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	return collectRoutes(rows)
}

// ListByUser returns all routes of one user, newest first.
func (r *routeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user routes: %w", err)
	}
	return collectRoutes(rows)
}

// ListPublic returns all public routes, newest first.
func (r *routeRepo) ListPublic(ctx context.Context) ([]model.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE is_public = true ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query public routes: %w", err)
	}
	return collectRoutes(rows)
}

// Update applies a partial merge inside one transaction: the stored row is
// locked, unset patch fields keep their previous values, and updated_at is
// stamped with the current time.
func (r *routeRepo) Update(ctx context.Context, id uuid.UUID, p model.RoutePatch) (model.Route, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Route{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 FOR UPDATE`
	current, err := scanRoute(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Route{}, fmt.Errorf("route: %w", errs.ErrNotFound)
		}
		return model.Route{}, fmt.Errorf("failed to lock route: %w", err)
	}

	merged := current
	merged.Name = p.Name.Apply(current.Name)
	merged.Description = p.Description.ApplyPtr(current.Description)
	merged.IsPublic = p.IsPublic.Apply(current.IsPublic)
	merged.PathData = p.PathData.Apply(current.PathData)
	merged.DistanceMeters = p.DistanceMeters.ApplyPtr(current.DistanceMeters)

	updateQuery := `
		UPDATE routes
		SET name = $1, description = $2, is_public = $3, path_data = $4,
		    distance_meters = $5, updated_at = now()
		WHERE id = $6
		RETURNING ` + routeColumns
	updated, err := scanRoute(tx.QueryRowContext(ctx, updateQuery,
		merged.Name, merged.Description, merged.IsPublic, []byte(merged.PathData),
		merged.DistanceMeters, id))
	if err != nil {
		return model.Route{}, fmt.Errorf("failed to update route: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return model.Route{}, fmt.Errorf("failed to commit route update: %w", err)
	}
	return updated, nil
}

// Delete removes a route by ID. Missing rows yield errs.ErrNotFound.
func (r *routeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("route: %w", errs.ErrNotFound)
	}
	return nil
}

// Exists reports whether a route with the given ID exists.
func (r *routeRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM routes WHERE id = $1)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check route existence: %w", err)
	}
	return exists, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoute(row rowScanner) (model.Route, error) {
	var route model.Route
	var idStr, userStr string
	var pathData []byte
	err := row.Scan(
		&idStr,
		&userStr,
		&route.Name,
		&route.Description,
		&route.IsPublic,
		&pathData,
		&route.DistanceMeters,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		return model.Route{}, err
	}
	route.PathData = json.RawMessage(pathData)
	if route.ID, err = uuid.Parse(idStr); err != nil {
		return model.Route{}, fmt.Errorf("failed to parse route ID: %w", err)
	}
	if route.UserID, err = uuid.Parse(userStr); err != nil {
		return model.Route{}, fmt.Errorf("failed to parse route owner ID: %w", err)
	}
	return route, nil
}

func collectRoutes(rows *sql.Rows) ([]model.Route, error) {
	defer rows.Close()
	routes := []model.Route{}
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		routes = append(routes, route)
	}
	return routes, rows.Err()
}
