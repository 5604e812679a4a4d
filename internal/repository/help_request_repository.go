package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-hub/internal/domain"
)

// HelpRequestRepository encapsulates help request persistence, including the
// volunteer set.
type HelpRequestRepository interface {
	Create(ctx context.Context, req *domain.HelpRequest) error
	GetByID(ctx context.Context, id string) (*domain.HelpRequest, error)
	List(ctx context.Context) ([]domain.HelpRequest, error)
	Resolve(ctx context.Context, id string) (*domain.HelpRequest, error)
	// AddVolunteer appends the user to the volunteer set if absent, bumping
	// updated_at only on change. Returns the resulting row and whether the
	// set changed. The membership check and append happen in one conditional
	// UPDATE, so concurrent re-submissions by the same user cannot duplicate.
	AddVolunteer(ctx context.Context, id, userID string) (*domain.HelpRequest, bool, error)
}

type helpRequestRepository struct {
	pool *pgxpool.Pool
}

// NewHelpRequestRepository instantiates repository.
func NewHelpRequestRepository(pool *pgxpool.Pool) HelpRequestRepository {
	return &helpRequestRepository{pool: pool}
}

func (r *helpRequestRepository) Create(ctx context.Context, req *domain.HelpRequest) error {
	const query = `
        INSERT INTO help_requests (id, author_id, description, location, is_resolved, volunteers)
        VALUES ($1, $2, $3, $4, FALSE, '{}')
        RETURNING is_resolved, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		req.ID,
		req.AuthorID,
		req.Description,
		req.Location,
	).Scan(&req.IsResolved, &req.CreatedAt, &req.UpdatedAt)
}

func (r *helpRequestRepository) GetByID(ctx context.Context, id string) (*domain.HelpRequest, error) {
	const query = `
        SELECT id, author_id, description, location, is_resolved, volunteers, created_at, updated_at
        FROM help_requests WHERE id=$1`

	return scanHelpRequest(r.pool.QueryRow(ctx, query, id))
}

// List returns requests in natural insertion order; pagination is out of scope.
func (r *helpRequestRepository) List(ctx context.Context) ([]domain.HelpRequest, error) {
	const query = `
        SELECT id, author_id, description, location, is_resolved, volunteers, created_at, updated_at
        FROM help_requests ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.HelpRequest
	for rows.Next() {
		var req domain.HelpRequest
		if err := rows.Scan(
			&req.ID,
			&req.AuthorID,
			&req.Description,
			&req.Location,
			&req.IsResolved,
			&req.VolunteerIDs,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Resolve sets the flag and bumps updated_at; repeated calls re-set both, so
// resolving an already-resolved request is not an error.
func (r *helpRequestRepository) Resolve(ctx context.Context, id string) (*domain.HelpRequest, error) {
	const query = `
        UPDATE help_requests SET is_resolved=TRUE, updated_at=NOW()
        WHERE id=$1
        RETURNING id, author_id, description, location, is_resolved, volunteers, created_at, updated_at`

	return scanHelpRequest(r.pool.QueryRow(ctx, query, id))
}

func (r *helpRequestRepository) AddVolunteer(ctx context.Context, id, userID string) (*domain.HelpRequest, bool, error) {
	const query = `
        UPDATE help_requests
        SET volunteers = array_append(volunteers, $2), updated_at = NOW()
        WHERE id=$1 AND NOT ($2 = ANY(volunteers))
        RETURNING id, author_id, description, location, is_resolved, volunteers, created_at, updated_at`

	req, err := scanHelpRequest(r.pool.QueryRow(ctx, query, id, userID))
	if err == nil {
		return req, true, nil
	}
	if err != pgx.ErrNoRows {
		return nil, false, err
	}

	// No row changed: either the request does not exist or the caller is
	// already a volunteer. Re-read to tell the two apart.
	req, err = r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return req, false, nil
}

func scanHelpRequest(row pgx.Row) (*domain.HelpRequest, error) {
	var req domain.HelpRequest
	if err := row.Scan(
		&req.ID,
		&req.AuthorID,
		&req.Description,
		&req.Location,
		&req.IsResolved,
		&req.VolunteerIDs,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
