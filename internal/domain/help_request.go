package domain

import "time"

// HelpRequest is a neighbor-assistance request with a de-duplicated set of
// volunteer user ids. VolunteerIDs carries insertion order but set semantics:
// a given id appears at most once.
type HelpRequest struct {
	ID           string
	AuthorID     string
	Description  string
	Location     *string
	IsResolved   bool
	VolunteerIDs []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PopulatedHelpRequest joins a request with its author and volunteers.
type PopulatedHelpRequest struct {
	Request    HelpRequest
	Author     *MirrorUser
	Volunteers []*MirrorUser
}
