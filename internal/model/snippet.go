package model

import "time"

// Snippet is a code fragment with a language label and a description.
//
// The code is stored in the "code" column but travels as "snippet" in the
// JSON API.
type Snippet struct {
	ID          int64     `json:"id"          db:"id"`
	UserID      int64     `json:"-"           db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Code        string    `json:"snippet"     db:"code"`
	Language    string    `json:"language"    db:"language"`
	Description string    `json:"description" db:"description"`
	Tags        *string   `json:"tags"        db:"tags"`
	CreatedAt   time.Time `json:"created_at"  db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"  db:"updated_at"`
}

// SnippetPatch carries the fields of a partial update. A nil field is left
// unchanged.
type SnippetPatch struct {
	Title       *string
	Code        *string
	Language    *string
	Description *string
	Tags        *string
}

func (p SnippetPatch) Apply(s *Snippet) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Code != nil {
		s.Code = *p.Code
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Tags != nil {
		tags := *p.Tags
		s.Tags = &tags
	}
}
