package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/repository"
	"github.com/spec-kit/community-hub/internal/session"
	apperrors "github.com/spec-kit/community-hub/pkg/util"
)

// AuthService coordinates signup and login flows for the auth subgraph. It is
// the only component that reads or writes credential records.
type AuthService struct {
	credentials repository.CredentialRepository
	tokens      *session.TokenManager
	bcryptCost  int
}

// NewAuthService builds the service.
func NewAuthService(credentials repository.CredentialRepository, tokens *session.TokenManager, bcryptCost int) *AuthService {
	return &AuthService{
		credentials: credentials,
		tokens:      tokens,
		bcryptCost:  bcryptCost,
	}
}

// Signup registers a new user. The duplicate check covers username and email
// in one combined lookup; success stores only the salted hash and does not
// log the user in.
func (s *AuthService) Signup(ctx context.Context, username, email, password string, role domain.Role) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" || role == "" {
		return apperrors.NewValidationError("username, email, password and role are required", nil)
	}

	exists, err := s.credentials.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return apperrors.MapError(err)
	}
	if exists {
		return apperrors.NewConflict("username or email is already taken", nil)
	}

	hash, err := session.HashPassword(password, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	cred := &domain.Credential{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// Login authenticates a user and issues a session token. Unknown usernames
// yield NOT_FOUND, a hash mismatch UNAUTHORIZED.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	cred, err := s.credentials.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, apperrors.NewNotFound("user", nil)
		}
		return "", time.Time{}, apperrors.MapError(err)
	}

	if err := session.ComparePassword(cred.PasswordHash, password); err != nil {
		return "", time.Time{}, apperrors.NewUnauthorized("invalid password")
	}

	token, expiresAt, err := s.tokens.Issue(cred.Identity())
	if err != nil {
		return "", time.Time{}, apperrors.MapError(err)
	}
	return token, expiresAt, nil
}

// CurrentUser returns the identity already derived from the caller's session,
// or nil when the request is anonymous. No datastore lookup is involved; the
// token is the source of truth.
func (s *AuthService) CurrentUser(ctx context.Context) *domain.Identity {
	identity, ok := session.IdentityFromContext(ctx)
	if !ok {
		return nil
	}
	return identity
}
