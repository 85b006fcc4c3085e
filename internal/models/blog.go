// Package models defines the domain types for Inkwell.
package models

// Status is the publication state of a blog.
type Status string

const (
	StatusDraft     Status = "Draft"
	StatusPublished Status = "Published"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Blog is a single blog post. JSON names follow the layout of the browser
// blob the data directory is compatible with.
type Blog struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Author      string     `json:"author,omitempty"`
	Status      Status     `json:"status"`
	PublishDate string     `json:"publishDate,omitempty"`
	Image       string     `json:"image,omitempty"`
	Created     Timestamp  `json:"created"`
	Updated     *Timestamp `json:"updated,omitempty"`
	Deleted     bool       `json:"deleted"`
	DeletedAt   *Timestamp `json:"deletedAt"`
}

// Active reports whether the blog is visible to listings and lookups.
func (b Blog) Active() bool {
	return !b.Deleted
}

// Clone returns a copy of b that shares no pointers with it.
func (b Blog) Clone() Blog {
	c := b
	if b.Updated != nil {
		u := *b.Updated
		c.Updated = &u
	}
	if b.DeletedAt != nil {
		d := *b.DeletedAt
		c.DeletedAt = &d
	}
	return c
}

// Fields is a partial set of user-editable blog fields. A nil field was not
// submitted and is left untouched by an update.
type Fields struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Author      *string `json:"author,omitempty"`
	Status      *Status `json:"status,omitempty"`
	PublishDate *string `json:"publishDate,omitempty"`
	Image       *string `json:"image,omitempty"`
}

// ApplyTo shallow-merges the submitted fields into b.
func (f Fields) ApplyTo(b *Blog) {
	if f.Title != nil {
		b.Title = *f.Title
	}
	if f.Description != nil {
		b.Description = *f.Description
	}
	if f.Category != nil {
		b.Category = *f.Category
	}
	if f.Author != nil {
		b.Author = *f.Author
	}
	if f.Status != nil {
		b.Status = *f.Status
	}
	if f.PublishDate != nil {
		b.PublishDate = *f.PublishDate
	}
	if f.Image != nil {
		b.Image = *f.Image
	}
}

// Ptr returns a pointer to v. Handy for building Fields literals.
func Ptr[T any](v T) *T {
	return &v
}
