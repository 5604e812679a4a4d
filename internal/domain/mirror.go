package domain

// MirrorUser is the community database's locally owned copy of an auth-domain
// identity. Created lazily the first time a caller writes into the community
// domain and never updated afterward; it is only as current as the moment it
// was copied.
type MirrorUser struct {
	ID       string
	Username string
	Email    string
	Role     Role
}

// MirrorFromIdentity builds the row persisted on first reference.
func MirrorFromIdentity(id Identity) MirrorUser {
	return MirrorUser{
		ID:       id.ID,
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
	}
}
