package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cyberkittens/kittens/internal/model"
)

// Common errors for kitten repository operations.
var (
	ErrKittenNotFound = errors.New("kitten not found")
	// ErrOwnerNotFound is returned when a kitten references a user that no
	// longer exists.
	ErrOwnerNotFound = errors.New("kitten owner not found")
)

// CreateKitten inserts a new kitten and fills in the store-assigned ID and
// timestamps.
func (r *Repository) CreateKitten(ctx context.Context, kitten *model.Kitten) error {
	query := `
		INSERT INTO kittens (name, age, color, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		kitten.Name,
		kitten.Age,
		kitten.Color,
		kitten.OwnerID,
	).Scan(&kitten.ID, &kitten.CreatedAt, &kitten.UpdatedAt)

	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return ErrOwnerNotFound
		}
		return fmt.Errorf("failed to create kitten: %w", err)
	}

	return nil
}

// GetKittenByID retrieves a kitten by its ID.
func (r *Repository) GetKittenByID(ctx context.Context, id int64) (*model.Kitten, error) {
	query := `
		SELECT id, name, age, color, owner_id, created_at, updated_at
		FROM kittens
		WHERE id = $1
	`

	var kitten model.Kitten
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&kitten.ID,
		&kitten.Name,
		&kitten.Age,
		&kitten.Color,
		&kitten.OwnerID,
		&kitten.CreatedAt,
		&kitten.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKittenNotFound
		}
		return nil, fmt.Errorf("failed to get kitten by ID: %w", err)
	}

	return &kitten, nil
}

// DeleteKitten removes a kitten by its ID.
func (r *Repository) DeleteKitten(ctx context.Context, id int64) error {
	query := `DELETE FROM kittens WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete kitten: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrKittenNotFound
	}

	return nil
}
