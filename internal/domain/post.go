package domain

import "time"

// PostCategory enumerates community post categories.
type PostCategory string

const (
	PostCategoryNews       PostCategory = "news"
	PostCategoryDiscussion PostCategory = "discussion"
)

// CommunityPost is a post authored by a mirrored user.
type CommunityPost struct {
	ID        string
	AuthorID  string
	Title     string
	Content   string
	Category  PostCategory
	AISummary *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PopulatedPost joins a post with its mirrored author for responses.
type PopulatedPost struct {
	Post   CommunityPost
	Author *MirrorUser
}
