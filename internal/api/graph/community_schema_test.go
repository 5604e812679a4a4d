package graph

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/service"
	"github.com/spec-kit/community-hub/internal/session"
)

type memMirrorRepo struct {
	users map[string]domain.MirrorUser
}

func (m *memMirrorRepo) Ensure(_ context.Context, user domain.MirrorUser) error {
	if _, ok := m.users[user.ID]; !ok {
		m.users[user.ID] = user
	}
	return nil
}

func (m *memMirrorRepo) GetByID(_ context.Context, id string) (*domain.MirrorUser, error) {
	if user, ok := m.users[id]; ok {
		return &user, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memMirrorRepo) GetByIDs(_ context.Context, ids []string) (map[string]*domain.MirrorUser, error) {
	result := map[string]*domain.MirrorUser{}
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			result[id] = &user
		}
	}
	return result, nil
}

type memPostRepo struct {
	posts []domain.CommunityPost
}

func (m *memPostRepo) Create(_ context.Context, post *domain.CommunityPost) error {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now
	m.posts = append(m.posts, *post)
	return nil
}

func (m *memPostRepo) UpdateContent(_ context.Context, id, content string) (*domain.CommunityPost, error) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			m.posts[i].Content = content
			m.posts[i].UpdatedAt = time.Now()
			post := m.posts[i]
			return &post, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memPostRepo) GetByID(_ context.Context, id string) (*domain.CommunityPost, error) {
	for i := range m.posts {
		if m.posts[i].ID == id {
			post := m.posts[i]
			return &post, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memPostRepo) List(_ context.Context) ([]domain.CommunityPost, error) {
	return append([]domain.CommunityPost{}, m.posts...), nil
}

type memHelpRepo struct {
	requests []domain.HelpRequest
}

func (m *memHelpRepo) Create(_ context.Context, req *domain.HelpRequest) error {
	now := time.Now()
	req.CreatedAt = now
	req.UpdatedAt = now
	m.requests = append(m.requests, *req)
	return nil
}

func (m *memHelpRepo) GetByID(_ context.Context, id string) (*domain.HelpRequest, error) {
	for i := range m.requests {
		if m.requests[i].ID == id {
			req := m.requests[i]
			return &req, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memHelpRepo) List(_ context.Context) ([]domain.HelpRequest, error) {
	return append([]domain.HelpRequest{}, m.requests...), nil
}

func (m *memHelpRepo) Resolve(_ context.Context, id string) (*domain.HelpRequest, error) {
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests[i].IsResolved = true
			m.requests[i].UpdatedAt = time.Now()
			req := m.requests[i]
			return &req, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memHelpRepo) AddVolunteer(_ context.Context, id, userID string) (*domain.HelpRequest, bool, error) {
	for i := range m.requests {
		if m.requests[i].ID != id {
			continue
		}
		for _, existing := range m.requests[i].VolunteerIDs {
			if existing == userID {
				req := m.requests[i]
				return &req, false, nil
			}
		}
		m.requests[i].VolunteerIDs = append(m.requests[i].VolunteerIDs, userID)
		m.requests[i].UpdatedAt = time.Now()
		req := m.requests[i]
		return &req, true, nil
	}
	return nil, false, pgx.ErrNoRows
}

func newCommunitySchema(t *testing.T) graphql.Schema {
	t.Helper()
	svc := service.NewCommunityService(service.CommunityDependencies{
		MirrorRepo:      &memMirrorRepo{users: map[string]domain.MirrorUser{}},
		PostRepo:        &memPostRepo{},
		HelpRequestRepo: &memHelpRepo{},
	})
	schema, err := NewCommunitySchema(svc)
	if err != nil {
		t.Fatalf("NewCommunitySchema() error = %v", err)
	}
	return schema
}

func identityCtx(id, username string) context.Context {
	return session.WithIdentity(context.Background(), &domain.Identity{
		ID:       id,
		Username: username,
		Email:    username + "@x.com",
		Role:     domain.RoleResident,
	})
}

func TestCommunitySchema_UnauthenticatedQuery(t *testing.T) {
	schema := newCommunitySchema(t)

	result := exec(t, schema, context.Background(), `{ communityPosts { id } }`)
	if code := resultCode(t, result); code != "UNAUTHENTICATED" {
		t.Errorf("extensions.code = %q, want UNAUTHENTICATED", code)
	}
	// The failed field is null in-band; HTTP-level consumers still see 200.
	if data, ok := result.Data.(map[string]interface{}); ok && data["communityPosts"] != nil {
		t.Errorf("communityPosts = %v, want null", data["communityPosts"])
	}
}

func TestCommunitySchema_AddPost_PopulatesAuthorAndTimestamps(t *testing.T) {
	schema := newCommunitySchema(t)

	result := exec(t, schema, identityCtx("u1", "alice"), `mutation {
		addCommunityPost(title: "Garage sale", content: "Saturday 10am", category: "news") {
			id title category aiSummary createdAt
			author { id username }
		}
	}`)
	if len(result.Errors) != 0 {
		t.Fatalf("addCommunityPost errors = %v", result.Errors)
	}

	post := result.Data.(map[string]interface{})["addCommunityPost"].(map[string]interface{})
	if post["title"] != "Garage sale" || post["category"] != "news" {
		t.Errorf("post = %v, want submitted fields back", post)
	}
	if post["aiSummary"] != nil {
		t.Errorf("aiSummary = %v, want null when omitted", post["aiSummary"])
	}
	author := post["author"].(map[string]interface{})
	if author["id"] != "u1" || author["username"] != "alice" {
		t.Errorf("author = %v, want mirrored alice", author)
	}

	// Timestamps travel as string epoch millis.
	createdAt, ok := post["createdAt"].(string)
	if !ok {
		t.Fatalf("createdAt = %T, want string", post["createdAt"])
	}
	millis, err := strconv.ParseInt(createdAt, 10, 64)
	if err != nil {
		t.Fatalf("createdAt %q is not integer millis: %v", createdAt, err)
	}
	if delta := time.Since(time.UnixMilli(millis)); delta < 0 || delta > time.Minute {
		t.Errorf("createdAt %q is not recent", createdAt)
	}
}

func TestCommunitySchema_HelpRequestLifecycle(t *testing.T) {
	schema := newCommunitySchema(t)
	alice := identityCtx("u1", "alice")
	bob := identityCtx("u2", "bob")

	result := exec(t, schema, alice, `mutation {
		addHelpRequest(description: "Need a ladder", location: "Oak St") {
			id isResolved location volunteers { id }
		}
	}`)
	if len(result.Errors) != 0 {
		t.Fatalf("addHelpRequest errors = %v", result.Errors)
	}
	created := result.Data.(map[string]interface{})["addHelpRequest"].(map[string]interface{})
	if created["isResolved"] != false {
		t.Error("new request is resolved, want false")
	}
	if created["location"] != "Oak St" {
		t.Errorf("location = %v, want Oak St", created["location"])
	}
	if volunteers := created["volunteers"].([]interface{}); len(volunteers) != 0 {
		t.Errorf("new request has %d volunteers, want 0", len(volunteers))
	}
	id := created["id"].(string)

	volunteer := `mutation { volunteerForHelpRequest(requestId: "` + id + `") { volunteers { username } } }`
	result = exec(t, schema, bob, volunteer)
	if len(result.Errors) != 0 {
		t.Fatalf("volunteer errors = %v", result.Errors)
	}

	// Repeating the mutation must not duplicate the entry.
	result = exec(t, schema, bob, volunteer)
	if len(result.Errors) != 0 {
		t.Fatalf("repeat volunteer errors = %v", result.Errors)
	}
	req := result.Data.(map[string]interface{})["volunteerForHelpRequest"].(map[string]interface{})
	volunteers := req["volunteers"].([]interface{})
	if len(volunteers) != 1 {
		t.Fatalf("volunteers = %v, want exactly one entry", volunteers)
	}
	if volunteers[0].(map[string]interface{})["username"] != "bob" {
		t.Errorf("volunteer = %v, want bob", volunteers[0])
	}

	result = exec(t, schema, alice,
		`mutation { resolveHelpRequest(id: "`+id+`") { isResolved volunteers { username } } }`)
	if len(result.Errors) != 0 {
		t.Fatalf("resolve errors = %v", result.Errors)
	}
	resolved := result.Data.(map[string]interface{})["resolveHelpRequest"].(map[string]interface{})
	if resolved["isResolved"] != true {
		t.Error("request not resolved")
	}
	if volunteers := resolved["volunteers"].([]interface{}); len(volunteers) != 1 {
		t.Errorf("volunteers lost on resolve: %v", volunteers)
	}
}

func TestCommunitySchema_VolunteerUnknownRequest(t *testing.T) {
	schema := newCommunitySchema(t)

	result := exec(t, schema, identityCtx("u1", "alice"),
		`mutation { volunteerForHelpRequest(requestId: "missing") { id } }`)
	if code := resultCode(t, result); code != "NOT_FOUND" {
		t.Errorf("extensions.code = %q, want NOT_FOUND", code)
	}
}
