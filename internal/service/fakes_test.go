package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

// =========================================================================
// IN-MEMORY FAKE STORE
// =========================================================================
//
// fakeStore implements the user, entry and snippet repositories on maps. It
// follows the real store's rules: records owned by someone else are not
// found, and matching is a case-insensitive substring test.

type fakeStore struct {
	users    map[int64]*model.User
	entries  map[int64]*model.Entry
	snippets map[int64]*model.Snippet
	nextID   int64

	// failWith, when set, is returned by every call.
	failWith error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*model.User),
		entries:  make(map[int64]*model.Entry),
		snippets: make(map[int64]*model.Snippet),
	}
}

var (
	_ repository.UserRepository    = (*fakeStore)(nil)
	_ repository.EntryRepository   = (*fakeStore)(nil)
	_ repository.SnippetRepository = (*fakeStore)(nil)
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func tagsOf(tags *string) string {
	if tags == nil {
		return ""
	}
	return *tags
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

// ===== Users =====

func (f *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	if f.failWith != nil {
		return f.failWith
	}
	for _, u := range f.users {
		if u.Email == user.Email || u.Username == user.Username {
			return apperror.Conflict(conflictMessage)
		}
	}
	user.ID = f.id()
	user.CreatedAt = time.Now().UTC()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (f *fakeStore) findUser(match func(*model.User) bool) (*model.User, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, u := range f.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, &apperror.AppError{Err: apperror.ErrNotFound, Message: "User not found"}
}

func (f *fakeStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Username == username })
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	return f.findUser(func(u *model.User) bool { return u.Email == email })
}

func (f *fakeStore) UserExists(_ context.Context, email, username string) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id int64) error {
	if f.failWith != nil {
		return f.failWith
	}
	if _, ok := f.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(f.users, id)
	for k, e := range f.entries {
		if e.UserID == id {
			delete(f.entries, k)
		}
	}
	for k, s := range f.snippets {
		if s.UserID == id {
			delete(f.snippets, k)
		}
	}
	return nil
}

// ===== Entries =====

func (f *fakeStore) CreateEntry(_ context.Context, entry *model.Entry) error {
	if f.failWith != nil {
		return f.failWith
	}
	entry.ID = f.id()
	entry.CreatedAt = time.Now().UTC()
	entry.UpdatedAt = entry.CreatedAt
	stored := *entry
	f.entries[entry.ID] = &stored
	return nil
}

func (f *fakeStore) GetEntry(_ context.Context, userID, id int64) (*model.Entry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	e, ok := f.entries[id]
	if !ok || e.UserID != userID {
		return nil, apperror.NotFound("Entry", id)
	}
	out := *e
	return &out, nil
}

func (f *fakeStore) selectEntries(userID int64, match func(*model.Entry) bool) ([]model.Entry, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Entry{}
	for id := int64(1); id <= f.nextID; id++ {
		if e, ok := f.entries[id]; ok && e.UserID == userID && match(e) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListEntries(_ context.Context, userID int64) ([]model.Entry, error) {
	return f.selectEntries(userID, func(*model.Entry) bool { return true })
}

func (f *fakeStore) UpdateEntry(ctx context.Context, userID, id int64, patch model.EntryPatch) (*model.Entry, error) {
	e, err := f.GetEntry(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	stored := *e
	f.entries[id] = &stored
	return e, nil
}

func (f *fakeStore) DeleteEntry(ctx context.Context, userID, id int64) error {
	if _, err := f.GetEntry(ctx, userID, id); err != nil {
		return err
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) SearchEntries(_ context.Context, userID int64, q string) ([]model.Entry, error) {
	return f.selectEntries(userID, func(e *model.Entry) bool {
		return contains(e.Title, q) || contains(e.Content, q) || contains(tagsOf(e.Tags), q)
	})
}

func (f *fakeStore) FilterEntries(_ context.Context, userID int64, field repository.Field, value string) ([]model.Entry, error) {
	return f.selectEntries(userID, func(e *model.Entry) bool {
		switch field {
		case repository.FieldTitle:
			return contains(e.Title, value)
		case repository.FieldTags:
			return contains(tagsOf(e.Tags), value)
		}
		return false
	})
}

// ===== Snippets =====

func (f *fakeStore) CreateSnippet(_ context.Context, snippet *model.Snippet) error {
	if f.failWith != nil {
		return f.failWith
	}
	snippet.ID = f.id()
	snippet.CreatedAt = time.Now().UTC()
	snippet.UpdatedAt = snippet.CreatedAt
	stored := *snippet
	f.snippets[snippet.ID] = &stored
	return nil
}

func (f *fakeStore) GetSnippet(_ context.Context, userID, id int64) (*model.Snippet, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	s, ok := f.snippets[id]
	if !ok || s.UserID != userID {
		return nil, apperror.NotFound("Snippet", id)
	}
	out := *s
	return &out, nil
}

func (f *fakeStore) selectSnippets(userID int64, match func(*model.Snippet) bool) ([]model.Snippet, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []model.Snippet{}
	for id := int64(1); id <= f.nextID; id++ {
		if s, ok := f.snippets[id]; ok && s.UserID == userID && match(s) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSnippets(_ context.Context, userID int64) ([]model.Snippet, error) {
	return f.selectSnippets(userID, func(*model.Snippet) bool { return true })
}

func (f *fakeStore) UpdateSnippet(ctx context.Context, userID, id int64, patch model.SnippetPatch) (*model.Snippet, error) {
	s, err := f.GetSnippet(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(s)
	s.UpdatedAt = time.Now().UTC()
	stored := *s
	f.snippets[id] = &stored
	return s, nil
}

func (f *fakeStore) DeleteSnippet(ctx context.Context, userID, id int64) error {
	if _, err := f.GetSnippet(ctx, userID, id); err != nil {
		return err
	}
	delete(f.snippets, id)
	return nil
}

func (f *fakeStore) SearchSnippets(_ context.Context, userID int64, q string) ([]model.Snippet, error) {
	return f.selectSnippets(userID, func(s *model.Snippet) bool {
		return contains(s.Title, q) || contains(s.Code, q) ||
			contains(tagsOf(s.Tags), q) || contains(s.Language, q)
	})
}

func (f *fakeStore) FilterSnippets(_ context.Context, userID int64, field repository.Field, value string) ([]model.Snippet, error) {
	return f.selectSnippets(userID, func(s *model.Snippet) bool {
		switch field {
		case repository.FieldTitle:
			return contains(s.Title, value)
		case repository.FieldTags:
			return contains(tagsOf(s.Tags), value)
		case repository.FieldLanguage:
			return contains(s.Language, value)
		}
		return false
	})
}

var errBoom = errors.New("boom")
