package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-hub/internal/domain"
)

// MirrorRepository manages the community database's lazily created copies of
// auth-domain users. Rows are inserted on first reference and never updated.
type MirrorRepository interface {
	// Ensure inserts the mirror row if absent. Concurrent first-writes for the
	// same id are safe: the second insert is a no-op, first writer wins.
	Ensure(ctx context.Context, user domain.MirrorUser) error
	GetByID(ctx context.Context, id string) (*domain.MirrorUser, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.MirrorUser, error)
}

type mirrorRepository struct {
	pool *pgxpool.Pool
}

// NewMirrorRepository returns a Postgres-backed implementation.
func NewMirrorRepository(pool *pgxpool.Pool) MirrorRepository {
	return &mirrorRepository{pool: pool}
}

func (r *mirrorRepository) Ensure(ctx context.Context, user domain.MirrorUser) error {
	const query = `
        INSERT INTO mirror_users (id, username, email, role)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, user.ID, user.Username, user.Email, user.Role)
	return err
}

func (r *mirrorRepository) GetByID(ctx context.Context, id string) (*domain.MirrorUser, error) {
	const query = `SELECT id, username, email, role FROM mirror_users WHERE id=$1`

	var user domain.MirrorUser
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.Role,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mirrorRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.MirrorUser, error) {
	result := make(map[string]*domain.MirrorUser, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	const query = `SELECT id, username, email, role FROM mirror_users WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var user domain.MirrorUser
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Role); err != nil {
			return nil, err
		}
		result[user.ID] = &user
	}
	return result, rows.Err()
}
