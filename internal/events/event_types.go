package events

import (
	"time"

	"github.com/spec-kit/community-hub/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventPostCreated         EventType = "post_created"
	EventHelpRequestOpened   EventType = "help_request_opened"
	EventHelpRequestResolved EventType = "help_request_resolved"
	EventVolunteerRegistered EventType = "volunteer_registered"
)

// Event represents a domain event emitted by the community service. ActorID
// is the mirrored user who triggered the event; SubjectID the post or help
// request it concerns.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// PostCreatedPayload payload.
type PostCreatedPayload struct {
	Title    string              `json:"title"`
	Category domain.PostCategory `json:"category"`
}

// HelpRequestOpenedPayload payload.
type HelpRequestOpenedPayload struct {
	Description string  `json:"description"`
	Location    *string `json:"location,omitempty"`
}

// HelpRequestResolvedPayload payload.
type HelpRequestResolvedPayload struct {
	AuthorID string `json:"author_id"`
}

// VolunteerRegisteredPayload payload.
type VolunteerRegisteredPayload struct {
	AuthorID    string `json:"author_id"`
	VolunteerID string `json:"volunteer_id"`
}
