package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-hub/internal/domain"
)

// PostRepository encapsulates community post persistence.
type PostRepository interface {
	Create(ctx context.Context, post *domain.CommunityPost) error
	UpdateContent(ctx context.Context, id, content string) (*domain.CommunityPost, error)
	GetByID(ctx context.Context, id string) (*domain.CommunityPost, error)
	List(ctx context.Context) ([]domain.CommunityPost, error)
}

type postRepository struct {
	pool *pgxpool.Pool
}

// NewPostRepository instantiates repository.
func NewPostRepository(pool *pgxpool.Pool) PostRepository {
	return &postRepository{pool: pool}
}

func (r *postRepository) Create(ctx context.Context, post *domain.CommunityPost) error {
	const query = `
        INSERT INTO community_posts (id, author_id, title, content, category, ai_summary)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		post.ID,
		post.AuthorID,
		post.Title,
		post.Content,
		post.Category,
		post.AISummary,
	).Scan(&post.CreatedAt, &post.UpdatedAt)
}

// UpdateContent overwrites content and bumps updated_at in one statement,
// returning the resulting row.
func (r *postRepository) UpdateContent(ctx context.Context, id, content string) (*domain.CommunityPost, error) {
	const query = `
        UPDATE community_posts SET content=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING id, author_id, title, content, category, ai_summary, created_at, updated_at`

	return scanPost(r.pool.QueryRow(ctx, query, content, id))
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*domain.CommunityPost, error) {
	const query = `
        SELECT id, author_id, title, content, category, ai_summary, created_at, updated_at
        FROM community_posts WHERE id=$1`

	return scanPost(r.pool.QueryRow(ctx, query, id))
}

// List returns posts in natural insertion order; pagination is out of scope.
func (r *postRepository) List(ctx context.Context) ([]domain.CommunityPost, error) {
	const query = `
        SELECT id, author_id, title, content, category, ai_summary, created_at, updated_at
        FROM community_posts ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.CommunityPost
	for rows.Next() {
		var post domain.CommunityPost
		if err := rows.Scan(
			&post.ID,
			&post.AuthorID,
			&post.Title,
			&post.Content,
			&post.Category,
			&post.AISummary,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func scanPost(row pgx.Row) (*domain.CommunityPost, error) {
	var post domain.CommunityPost
	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.Title,
		&post.Content,
		&post.Category,
		&post.AISummary,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &post, nil
}
