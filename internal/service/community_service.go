package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-hub/internal/domain"
	"github.com/spec-kit/community-hub/internal/events"
	"github.com/spec-kit/community-hub/internal/repository"
	"github.com/spec-kit/community-hub/internal/session"
	apperrors "github.com/spec-kit/community-hub/pkg/util"
)

// CommunityService owns the community domain: posts, help requests and the
// volunteer set. Every operation requires a verified caller; every mutation
// that attributes authorship or volunteering reconciles the user mirror
// before the domain write, so author references never dangle.
type CommunityService struct {
	mirrors    repository.MirrorRepository
	posts      repository.PostRepository
	requests   repository.HelpRequestRepository
	dispatcher events.Dispatcher
}

// CommunityDependencies encapsulates repo requirements for the service.
type CommunityDependencies struct {
	MirrorRepo      repository.MirrorRepository
	PostRepo        repository.PostRepository
	HelpRequestRepo repository.HelpRequestRepository
	Dispatcher      events.Dispatcher
}

// NewCommunityService builds the service.
func NewCommunityService(deps CommunityDependencies) *CommunityService {
	return &CommunityService{
		mirrors:    deps.MirrorRepo,
		posts:      deps.PostRepo,
		requests:   deps.HelpRequestRepo,
		dispatcher: deps.Dispatcher,
	}
}

// caller returns the verified identity or UNAUTHENTICATED.
func (s *CommunityService) caller(ctx context.Context) (*domain.Identity, error) {
	identity, ok := session.IdentityFromContext(ctx)
	if !ok {
		return nil, apperrors.NewUnauthenticated("you must be logged in")
	}
	return identity, nil
}

// ensureMirrored persists the caller's mirror row if it does not exist yet.
// Idempotent by id: a concurrent first-write loses the insert race and
// proceeds as if the row had always been there.
func (s *CommunityService) ensureMirrored(ctx context.Context, identity *domain.Identity) error {
	if err := s.mirrors.Ensure(ctx, domain.MirrorFromIdentity(*identity)); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AddCommunityPost creates a post attributed to the caller.
func (s *CommunityService) AddCommunityPost(ctx context.Context, title, content string, category domain.PostCategory, aiSummary *string) (*domain.PopulatedPost, error) {
	identity, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if title == "" || content == "" || category == "" {
		return nil, apperrors.NewValidationError("title, content and category are required", nil)
	}
	if err := s.ensureMirrored(ctx, identity); err != nil {
		return nil, err
	}

	post := &domain.CommunityPost{
		ID:        uuid.NewString(),
		AuthorID:  identity.ID,
		Title:     title,
		Content:   content,
		Category:  category,
		AISummary: aiSummary,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventPostCreated, post.ID, identity.ID, events.PostCreatedPayload{
		Title:    post.Title,
		Category: post.Category,
	})
	return s.populatePost(ctx, post)
}

// UpdateCommunityPost overwrites a post's content and bumps updated_at. Any
// authenticated user may edit any post; there is no ownership check.
func (s *CommunityService) UpdateCommunityPost(ctx context.Context, id, content string) (*domain.PopulatedPost, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}

	post, err := s.posts.UpdateContent(ctx, id, content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("post", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return s.populatePost(ctx, post)
}

// CommunityPosts lists all posts with their authors populated.
func (s *CommunityService) CommunityPosts(ctx context.Context) ([]*domain.PopulatedPost, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}

	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	authorIDs := make([]string, 0, len(posts))
	for _, post := range posts {
		authorIDs = append(authorIDs, post.AuthorID)
	}
	authors, err := s.mirrors.GetByIDs(ctx, authorIDs)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	populated := make([]*domain.PopulatedPost, 0, len(posts))
	for _, post := range posts {
		populated = append(populated, &domain.PopulatedPost{Post: post, Author: authors[post.AuthorID]})
	}
	return populated, nil
}

// AddHelpRequest creates a help request attributed to the caller with an
// empty volunteer set.
func (s *CommunityService) AddHelpRequest(ctx context.Context, description string, location *string) (*domain.PopulatedHelpRequest, error) {
	identity, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if err := s.ensureMirrored(ctx, identity); err != nil {
		return nil, err
	}

	req := &domain.HelpRequest{
		ID:          uuid.NewString(),
		AuthorID:    identity.ID,
		Description: description,
		Location:    location,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventHelpRequestOpened, req.ID, identity.ID, events.HelpRequestOpenedPayload{
		Description: req.Description,
		Location:    req.Location,
	})
	return s.populateHelpRequest(ctx, req)
}

// ResolveHelpRequest marks a request resolved. Resolving an already-resolved
// request is not an error; the flag and timestamp are simply set again.
func (s *CommunityService) ResolveHelpRequest(ctx context.Context, id string) (*domain.PopulatedHelpRequest, error) {
	identity, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	req, err := s.requests.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("help request", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.EventHelpRequestResolved, req.ID, identity.ID, events.HelpRequestResolvedPayload{
		AuthorID: req.AuthorID,
	})
	return s.populateHelpRequest(ctx, req)
}

// VolunteerForHelpRequest adds the caller to the request's volunteer set.
// Membership is checked and appended in one conditional update at the
// storage layer, so a repeated call by the same caller leaves exactly one
// entry and concurrent calls by distinct callers each land independently.
// updated_at is bumped only when the set actually changed.
func (s *CommunityService) VolunteerForHelpRequest(ctx context.Context, requestID string) (*domain.PopulatedHelpRequest, error) {
	identity, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ensureMirrored(ctx, identity); err != nil {
		return nil, err
	}

	req, changed, err := s.requests.AddVolunteer(ctx, requestID, identity.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("help request", nil)
		}
		return nil, apperrors.MapError(err)
	}

	if changed {
		s.publish(ctx, events.EventVolunteerRegistered, req.ID, identity.ID, events.VolunteerRegisteredPayload{
			AuthorID:    req.AuthorID,
			VolunteerID: identity.ID,
		})
	}
	return s.populateHelpRequest(ctx, req)
}

// HelpRequests lists all requests with authors and volunteers populated.
func (s *CommunityService) HelpRequests(ctx context.Context) ([]*domain.PopulatedHelpRequest, error) {
	if _, err := s.caller(ctx); err != nil {
		return nil, err
	}

	requests, err := s.requests.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.AuthorID)
		ids = append(ids, req.VolunteerIDs...)
	}
	users, err := s.mirrors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	populated := make([]*domain.PopulatedHelpRequest, 0, len(requests))
	for _, req := range requests {
		populated = append(populated, assembleHelpRequest(req, users))
	}
	return populated, nil
}

func (s *CommunityService) populatePost(ctx context.Context, post *domain.CommunityPost) (*domain.PopulatedPost, error) {
	author, err := s.mirrors.GetByID(ctx, post.AuthorID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	return &domain.PopulatedPost{Post: *post, Author: author}, nil
}

func (s *CommunityService) populateHelpRequest(ctx context.Context, req *domain.HelpRequest) (*domain.PopulatedHelpRequest, error) {
	ids := append([]string{req.AuthorID}, req.VolunteerIDs...)
	users, err := s.mirrors.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assembleHelpRequest(*req, users), nil
}

func assembleHelpRequest(req domain.HelpRequest, users map[string]*domain.MirrorUser) *domain.PopulatedHelpRequest {
	volunteers := make([]*domain.MirrorUser, 0, len(req.VolunteerIDs))
	for _, id := range req.VolunteerIDs {
		if user, ok := users[id]; ok {
			volunteers = append(volunteers, user)
		}
	}
	return &domain.PopulatedHelpRequest{
		Request:    req,
		Author:     users[req.AuthorID],
		Volunteers: volunteers,
	}
}

func (s *CommunityService) publish(ctx context.Context, eventType events.EventType, subjectID, actorID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}
