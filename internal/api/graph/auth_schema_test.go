package graph

import (
	"context"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/service"
	"github.com/spec-kit/community-hub/internal/session"
)

type memCredentialRepo struct {
	byUsername map[string]*domain.Credential
}

func newMemCredentialRepo() *memCredentialRepo {
	return &memCredentialRepo{byUsername: map[string]*domain.Credential{}}
}

func (m *memCredentialRepo) Create(_ context.Context, cred *domain.Credential) error {
	cred.CreatedAt = time.Now()
	m.byUsername[cred.Username] = cred
	return nil
}

func (m *memCredentialRepo) GetByUsername(_ context.Context, username string) (*domain.Credential, error) {
	if cred, ok := m.byUsername[username]; ok {
		return cred, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memCredentialRepo) GetByID(_ context.Context, id string) (*domain.Credential, error) {
	for _, cred := range m.byUsername {
		if cred.ID == id {
			return cred, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memCredentialRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, cred := range m.byUsername {
		if cred.Username == username || cred.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// capturingSink records what the resolvers ask the transport to do with the
// session cookie.
type capturingSink struct {
	token     string
	expiresAt time.Time
	cleared   bool
}

func (s *capturingSink) SetSessionCookie(token string, expiresAt time.Time) {
	s.token = token
	s.expiresAt = expiresAt
}

func (s *capturingSink) ClearSessionCookie() {
	s.cleared = true
}

type authFixture struct {
	schema graphql.Schema
	tokens *session.TokenManager
	repo   *memCredentialRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	repo := newMemCredentialRepo()
	tokens := session.NewTokenManager("test-secret", 24*time.Hour)
	schema, err := NewAuthSchema(service.NewAuthService(repo, tokens, 4))
	if err != nil {
		t.Fatalf("NewAuthSchema() error = %v", err)
	}
	return &authFixture{schema: schema, tokens: tokens, repo: repo}
}

func exec(t *testing.T, schema graphql.Schema, ctx context.Context, query string) *graphql.Result {
	t.Helper()
	return graphql.Do(graphql.Params{
		Schema:        schema,
		RequestString: query,
		Context:       ctx,
	})
}

func resultCode(t *testing.T, result *graphql.Result) string {
	t.Helper()
	if len(result.Errors) == 0 {
		t.Fatal("expected a GraphQL error, got none")
	}
	code, _ := result.Errors[0].Extensions["code"].(string)
	return code
}

func TestAuthSchema_SignupLogin_SetsVerifiableCookie(t *testing.T) {
	f := newAuthFixture(t)
	sink := &capturingSink{}
	ctx := session.WithCookieSink(context.Background(), sink)

	result := exec(t, f.schema, ctx,
		`mutation { signup(username: "alice", email: "a@x.com", password: "pw", role: "resident") }`)
	if len(result.Errors) != 0 {
		t.Fatalf("signup errors = %v", result.Errors)
	}
	if sink.token != "" {
		t.Error("signup set a session cookie; logging in is a separate step")
	}

	result = exec(t, f.schema, ctx,
		`mutation { login(username: "alice", password: "pw") }`)
	if len(result.Errors) != 0 {
		t.Fatalf("login errors = %v", result.Errors)
	}
	if sink.token == "" {
		t.Fatal("login did not set a session cookie")
	}
	identity, err := f.tokens.Verify(sink.token)
	if err != nil {
		t.Fatalf("cookie token does not verify: %v", err)
	}
	if identity.Username != "alice" || identity.Role != domain.RoleResident {
		t.Errorf("cookie identity = %+v, want alice/resident", identity)
	}
	if time.Until(sink.expiresAt) <= 0 {
		t.Error("cookie expiry is not in the future")
	}
}

func TestAuthSchema_Signup_DuplicateConflict(t *testing.T) {
	f := newAuthFixture(t)
	ctx := session.WithCookieSink(context.Background(), &capturingSink{})

	signup := `mutation { signup(username: "alice", email: "a@x.com", password: "pw", role: "resident") }`
	if result := exec(t, f.schema, ctx, signup); len(result.Errors) != 0 {
		t.Fatalf("first signup errors = %v", result.Errors)
	}

	result := exec(t, f.schema, ctx, signup)
	if code := resultCode(t, result); code != "CONFLICT" {
		t.Errorf("extensions.code = %q, want CONFLICT", code)
	}
}

func TestAuthSchema_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := session.WithCookieSink(context.Background(), &capturingSink{})

	signup := `mutation { signup(username: "alice", email: "a@x.com", password: "pw", role: "resident") }`
	if result := exec(t, f.schema, ctx, signup); len(result.Errors) != 0 {
		t.Fatalf("signup errors = %v", result.Errors)
	}

	result := exec(t, f.schema, ctx, `mutation { login(username: "alice", password: "wrong") }`)
	if code := resultCode(t, result); code != "UNAUTHORIZED" {
		t.Errorf("extensions.code = %q, want UNAUTHORIZED", code)
	}
}

func TestAuthSchema_CurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	query := `{ currentUser { id username email role } }`

	// Anonymous callers get null, not an error.
	result := exec(t, f.schema, context.Background(), query)
	if len(result.Errors) != 0 {
		t.Fatalf("anonymous currentUser errors = %v", result.Errors)
	}
	data := result.Data.(map[string]interface{})
	if data["currentUser"] != nil {
		t.Errorf("anonymous currentUser = %v, want null", data["currentUser"])
	}

	ctx := session.WithIdentity(context.Background(), &domain.Identity{
		ID:       "u1",
		Username: "alice",
		Email:    "a@x.com",
		Role:     domain.RoleCommunityOrganizer,
	})
	result = exec(t, f.schema, ctx, query)
	if len(result.Errors) != 0 {
		t.Fatalf("currentUser errors = %v", result.Errors)
	}
	user := result.Data.(map[string]interface{})["currentUser"].(map[string]interface{})
	if user["id"] != "u1" || user["username"] != "alice" || user["role"] != "community_organizer" {
		t.Errorf("currentUser = %v, want alice's identity", user)
	}
}

func TestAuthSchema_Logout_ClearsCookie(t *testing.T) {
	f := newAuthFixture(t)
	sink := &capturingSink{}
	ctx := session.WithCookieSink(context.Background(), sink)

	result := exec(t, f.schema, ctx, `mutation { logout }`)
	if len(result.Errors) != 0 {
		t.Fatalf("logout errors = %v", result.Errors)
	}
	if result.Data.(map[string]interface{})["logout"] != true {
		t.Error("logout did not return true")
	}
	if !sink.cleared {
		t.Error("logout did not clear the session cookie")
	}
}
