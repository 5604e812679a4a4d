package domain

import "time"

// Role enumerates the community roles a user can sign up with.
type Role string

const (
	RoleResident           Role = "resident"
	RoleBusinessOwner      Role = "business_owner"
	RoleCommunityOrganizer Role = "community_organizer"
)

// Identity is the caller-facing view of a user: the fields carried inside a
// session token and mirrored into the community database. It never contains
// credential material.
type Identity struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// Credential is the authentication domain's full user record. Owned by the
// auth subgraph only; other services see at most an Identity.
type Credential struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// Identity strips a credential down to the session-safe fields.
func (c *Credential) Identity() Identity {
	return Identity{
		ID:       c.ID,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}
