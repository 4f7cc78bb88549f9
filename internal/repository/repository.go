// Package repository declares the record store accessor. Every Entry and
// Snippet operation takes the caller's user id and only ever touches rows
// owned by that user; rows owned by someone else behave as if they did not
// exist.
package repository

import (
	"context"

	"github.com/sakif/devlog/internal/model"
)

// Field names a column a filter may match on.
type Field string

const (
	FieldTitle    Field = "title"
	FieldTags     Field = "tags"
	FieldLanguage Field = "language"
)

// UserRepository stores accounts.
type UserRepository interface {
	// CreateUser returns apperror.ErrConflict when the email or username is
	// already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UserExists reports whether any user has the given email or username.
	UserExists(ctx context.Context, email, username string) (bool, error)
	// DeleteUser removes the user and, by cascade, everything they own.
	DeleteUser(ctx context.Context, id int64) error
}

// EntryRepository stores journal entries. A missing entry, or one owned by
// another user, is reported as apperror.ErrNotFound.
type EntryRepository interface {
	CreateEntry(ctx context.Context, entry *model.Entry) error
	GetEntry(ctx context.Context, userID, id int64) (*model.Entry, error)
	ListEntries(ctx context.Context, userID int64) ([]model.Entry, error)
	UpdateEntry(ctx context.Context, userID, id int64, patch model.EntryPatch) (*model.Entry, error)
	DeleteEntry(ctx context.Context, userID, id int64) error
	// SearchEntries matches query against title, content and tags.
	SearchEntries(ctx context.Context, userID int64, query string) ([]model.Entry, error)
	// FilterEntries matches value against a single field.
	FilterEntries(ctx context.Context, userID int64, field Field, value string) ([]model.Entry, error)
}

// SnippetRepository stores code snippets with the same ownership rules as
// EntryRepository.
type SnippetRepository interface {
	CreateSnippet(ctx context.Context, snippet *model.Snippet) error
	GetSnippet(ctx context.Context, userID, id int64) (*model.Snippet, error)
	ListSnippets(ctx context.Context, userID int64) ([]model.Snippet, error)
	UpdateSnippet(ctx context.Context, userID, id int64, patch model.SnippetPatch) (*model.Snippet, error)
	DeleteSnippet(ctx context.Context, userID, id int64) error
	// SearchSnippets matches query against title, code, tags and language.
	SearchSnippets(ctx context.Context, userID int64, query string) ([]model.Snippet, error)
	FilterSnippets(ctx context.Context, userID int64, field Field, value string) ([]model.Snippet, error)
}
