package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-hub/internal/domain"
)

// CredentialRepository defines persistence access for the auth subgraph's
// user records. No other service touches this database.
type CredentialRepository interface {
	Create(ctx context.Context, cred *domain.Credential) error
	GetByUsername(ctx context.Context, username string) (*domain.Credential, error)
	GetByID(ctx context.Context, id string) (*domain.Credential, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

type credentialRepository struct {
	pool *pgxpool.Pool
}

// NewCredentialRepository returns a Postgres-backed implementation.
func NewCredentialRepository(pool *pgxpool.Pool) CredentialRepository {
	return &credentialRepository{pool: pool}
}

func (r *credentialRepository) Create(ctx context.Context, cred *domain.Credential) error {
	const query = `
        INSERT INTO users (id, username, email, password_hash, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		cred.ID,
		cred.Username,
		cred.Email,
		cred.PasswordHash,
		cred.Role,
	).Scan(&cred.CreatedAt)
}

func (r *credentialRepository) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	const query = `
        SELECT id, username, email, password_hash, role, created_at
        FROM users WHERE username=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	const query = `
        SELECT id, username, email, password_hash, role, created_at
        FROM users WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

// ExistsByUsernameOrEmail performs the combined duplicate check used by
// signup: one lookup covering both unique columns.
func (r *credentialRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE username=$1 OR email=$2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *credentialRepository) scanOne(row pgx.Row) (*domain.Credential, error) {
	var cred domain.Credential
	if err := row.Scan(
		&cred.ID,
		&cred.Username,
		&cred.Email,
		&cred.PasswordHash,
		&cred.Role,
		&cred.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &cred, nil
}
