package models

import "time"

// Post represents a blog/news entry on the public site.
type Post struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Slug      string    `db:"slug" json:"slug"`
	Summary   string    `db:"summary" json:"summary"`
	Body      string    `db:"body" json:"body"`
	Tags      string    `db:"tags" json:"tags"`
	Published bool      `db:"published" json:"published"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PostFilter captures query criteria for listing posts.
type PostFilter struct {
	Published *bool
	Tag       string
	Search    string
	Page      int
	PageSize  int
}

// CreatePostRequest is the admin payload for publishing a post.
type CreatePostRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Slug      string `json:"slug" validate:"required,min=3,max=200"`
	Summary   string `json:"summary" validate:"max=500"`
	Body      string `json:"body" validate:"required"`
	Tags      string `json:"tags" validate:"max=200"`
	Published bool   `json:"published"`
}

// UpdatePostRequest is the admin payload for editing a post.
type UpdatePostRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Summary   string `json:"summary" validate:"max=500"`
	Body      string `json:"body" validate:"required"`
	Tags      string `json:"tags" validate:"max=200"`
	Published bool   `json:"published"`
}
