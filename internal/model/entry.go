package model

import "time"

// Entry is a markdown note owned by exactly one user.
//
// Tags is a free-text string (comma-separated by convention). A nil Tags
// means the client never set it and serialises as null.
type Entry struct {
	ID        int64     `json:"id"         db:"id"`
	UserID    int64     `json:"-"          db:"user_id"`
	Title     string    `json:"title"      db:"title"`
	Content   string    `json:"content"    db:"content"`
	Tags      *string   `json:"tags"       db:"tags"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// EntryPatch carries the fields of a partial update. A nil field is left
// unchanged.
type EntryPatch struct {
	Title   *string
	Content *string
	Tags    *string
}

// Apply copies every non-nil field of p onto e.
func (p EntryPatch) Apply(e *Entry) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Content != nil {
		e.Content = *p.Content
	}
	if p.Tags != nil {
		tags := *p.Tags
		e.Tags = &tags
	}
}
