package service

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/session"
	apperrors "github.com/spec-kit/community-hub/pkg/util"
)

type mockCredentialRepo struct {
	createFn func(ctx context.Context, cred *domain.Credential) error
	getFn    func(ctx context.Context, username string) (*domain.Credential, error)
	existsFn func(ctx context.Context, username, email string) (bool, error)

	created []*domain.Credential
}

func (m *mockCredentialRepo) Create(ctx context.Context, cred *domain.Credential) error {
	m.created = append(m.created, cred)
	if m.createFn != nil {
		return m.createFn(ctx, cred)
	}
	return nil
}

func (m *mockCredentialRepo) GetByUsername(ctx context.Context, username string) (*domain.Credential, error) {
	if m.getFn != nil {
		return m.getFn(ctx, username)
	}
	return nil, pgx.ErrNoRows
}

func (m *mockCredentialRepo) GetByID(ctx context.Context, id string) (*domain.Credential, error) {
	return nil, pgx.ErrNoRows
}

func (m *mockCredentialRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, username, email)
	}
	return false, nil
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	return apperrors.ToDomainError(err).Code
}

func TestAuthService_Signup_StoresHashNotPlaintext(t *testing.T) {
	repo := &mockCredentialRepo{}
	svc := NewAuthService(repo, session.NewTokenManager("secret", time.Hour), 4)

	if err := svc.Signup(context.Background(), "alice", "a@x.com", "pw", domain.RoleResident); err != nil {
		t.Fatalf("Signup() error = %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("created %d records, want 1", len(repo.created))
	}
	cred := repo.created[0]
	if cred.PasswordHash == "pw" || cred.PasswordHash == "" {
		t.Errorf("password stored as %q, want salted hash", cred.PasswordHash)
	}
	if err := session.ComparePassword(cred.PasswordHash, "pw"); err != nil {
		t.Errorf("stored hash does not match password: %v", err)
	}
	if cred.ID == "" {
		t.Error("no id assigned")
	}
}

func TestAuthService_Signup_Conflict(t *testing.T) {
	repo := &mockCredentialRepo{
		existsFn: func(ctx context.Context, username, email string) (bool, error) {
			return true, nil
		},
	}
	svc := NewAuthService(repo, session.NewTokenManager("secret", time.Hour), 4)

	err := svc.Signup(context.Background(), "alice", "a@x.com", "pw", domain.RoleResident)
	if code := errCode(t, err); code != "CONFLICT" {
		t.Errorf("code = %q, want CONFLICT", code)
	}
	if len(repo.created) != 0 {
		t.Errorf("created %d records on conflict, want 0", len(repo.created))
	}
}

func TestAuthService_Signup_Validation(t *testing.T) {
	repo := &mockCredentialRepo{}
	svc := NewAuthService(repo, session.NewTokenManager("secret", time.Hour), 4)

	err := svc.Signup(context.Background(), "", "a@x.com", "pw", domain.RoleResident)
	if code := errCode(t, err); code != "VALIDATION_FAILED" {
		t.Errorf("code = %q, want VALIDATION_FAILED", code)
	}
	if len(repo.created) != 0 {
		t.Errorf("created %d records on invalid input, want 0", len(repo.created))
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	repo := &mockCredentialRepo{}
	svc := NewAuthService(repo, session.NewTokenManager("secret", time.Hour), 4)

	_, _, err := svc.Login(context.Background(), "ghost", "pw")
	if code := errCode(t, err); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hash, err := session.HashPassword("right", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	repo := &mockCredentialRepo{
		getFn: func(ctx context.Context, username string) (*domain.Credential, error) {
			return &domain.Credential{ID: "u1", Username: username, PasswordHash: hash}, nil
		},
	}
	svc := NewAuthService(repo, session.NewTokenManager("secret", time.Hour), 4)

	_, _, err = svc.Login(context.Background(), "alice", "wrong")
	if code := errCode(t, err); code != "UNAUTHORIZED" {
		t.Errorf("code = %q, want UNAUTHORIZED", code)
	}
}

func TestAuthService_Login_IssuesVerifiableSession(t *testing.T) {
	hash, err := session.HashPassword("pw", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	repo := &mockCredentialRepo{
		getFn: func(ctx context.Context, username string) (*domain.Credential, error) {
			return &domain.Credential{
				ID:           "u1",
				Username:     "alice",
				Email:        "a@x.com",
				PasswordHash: hash,
				Role:         domain.RoleResident,
			}, nil
		},
	}
	tokens := session.NewTokenManager("secret", time.Hour)
	svc := NewAuthService(repo, tokens, 4)

	token, expiresAt, err := svc.Login(context.Background(), "alice", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Error("expiry is not in the future")
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	want := domain.Identity{ID: "u1", Username: "alice", Email: "a@x.com", Role: domain.RoleResident}
	if *identity != want {
		t.Errorf("decoded identity = %+v, want %+v", *identity, want)
	}
}

func TestAuthService_CurrentUser(t *testing.T) {
	svc := NewAuthService(&mockCredentialRepo{}, session.NewTokenManager("secret", time.Hour), 4)

	if got := svc.CurrentUser(context.Background()); got != nil {
		t.Errorf("CurrentUser() on anonymous context = %+v, want nil", got)
	}

	identity := &domain.Identity{ID: "u1", Username: "alice"}
	ctx := session.WithIdentity(context.Background(), identity)
	if got := svc.CurrentUser(ctx); got != identity {
		t.Errorf("CurrentUser() = %+v, want the context identity", got)
	}
}
