package service

import (
	"context"
	"log/slog"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

// queryRequired is returned by Search when q is empty.
const queryRequired = "Query parameter 'q' is required"

// EntryService manages a user's journal entries.
type EntryService struct {
	repo   repository.EntryRepository
	logger *slog.Logger
}

// NewEntryService returns an EntryService backed by repo.
func NewEntryService(repo repository.EntryRepository, logger *slog.Logger) *EntryService {
	return &EntryService{repo: repo, logger: logger}
}

func (s *EntryService) Create(ctx context.Context, userID int64, req model.CreateEntryRequest) (*model.Entry, error) {
	entry := &model.Entry{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}
	if err := s.repo.CreateEntry(ctx, entry); err != nil {
		logFailure(s.logger, "failed to create entry", err, slog.Int64("userID", userID))
		return nil, err
	}

	s.logger.Info("entry created",
		slog.Int64("id", entry.ID),
		slog.Int64("userID", userID),
	)
	return entry, nil
}

func (s *EntryService) Get(ctx context.Context, userID, id int64) (*model.Entry, error) {
	return s.repo.GetEntry(ctx, userID, id)
}

func (s *EntryService) List(ctx context.Context, userID int64) ([]model.Entry, error) {
	entries, err := s.repo.ListEntries(ctx, userID)
	if err != nil {
		logFailure(s.logger, "failed to list entries", err, slog.Int64("userID", userID))
		return nil, err
	}
	return entries, nil
}

// Update applies the fields present in req and leaves the rest unchanged.
func (s *EntryService) Update(ctx context.Context, userID int64, req model.UpdateEntryRequest) (*model.Entry, error) {
	entry, err := s.repo.UpdateEntry(ctx, userID, req.ID, req.Patch())
	if err != nil {
		logFailure(s.logger, "failed to update entry", err, slog.Int64("id", req.ID))
		return nil, err
	}

	s.logger.Info("entry updated", slog.Int64("id", entry.ID))
	return entry, nil
}

func (s *EntryService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteEntry(ctx, userID, id); err != nil {
		logFailure(s.logger, "failed to delete entry", err, slog.Int64("id", id))
		return err
	}

	s.logger.Info("entry deleted", slog.Int64("id", id))
	return nil
}

// Search returns every entry whose title, content or tags contain q. No
// match is an empty slice, not an error.
func (s *EntryService) Search(ctx context.Context, userID int64, q string) ([]model.Entry, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", queryRequired)
	}
	entries, err := s.repo.SearchEntries(ctx, userID, q)
	if err != nil {
		logFailure(s.logger, "failed to search entries", err)
		return nil, err
	}
	return entries, nil
}

func (s *EntryService) FilterByTag(ctx context.Context, userID int64, tag string) ([]model.Entry, error) {
	return s.filter(ctx, userID, repository.FieldTags, "tag", tag)
}

func (s *EntryService) FilterByTitle(ctx context.Context, userID int64, title string) ([]model.Entry, error) {
	return s.filter(ctx, userID, repository.FieldTitle, "title", title)
}

// filter reports an empty result as not found.
func (s *EntryService) filter(ctx context.Context, userID int64, field repository.Field, label, value string) ([]model.Entry, error) {
	entries, err := s.repo.FilterEntries(ctx, userID, field, value)
	if err != nil {
		logFailure(s.logger, "failed to filter entries", err, slog.String("field", string(field)))
		return nil, err
	}
	if len(entries) == 0 {
		return nil, apperror.NoMatches("entries", label, value)
	}
	return entries, nil
}
