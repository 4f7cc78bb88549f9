package service

import (
	"context"
	"log/slog"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
	"github.com/sakif/devlog/internal/repository"
)

// SnippetService manages a user's code snippets.
type SnippetService struct {
	repo   repository.SnippetRepository
	logger *slog.Logger
}

// NewSnippetService returns a SnippetService backed by repo.
func NewSnippetService(repo repository.SnippetRepository, logger *slog.Logger) *SnippetService {
	return &SnippetService{repo: repo, logger: logger}
}

func (s *SnippetService) Create(ctx context.Context, userID int64, req model.CreateSnippetRequest) (*model.Snippet, error) {
	snippet := &model.Snippet{
		UserID:      userID,
		Title:       req.Title,
		Code:        req.Snippet,
		Language:    req.Language,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if err := s.repo.CreateSnippet(ctx, snippet); err != nil {
		logFailure(s.logger, "failed to create snippet", err, slog.Int64("userID", userID))
		return nil, err
	}

	s.logger.Info("snippet created",
		slog.Int64("id", snippet.ID),
		slog.String("language", snippet.Language),
	)
	return snippet, nil
}

func (s *SnippetService) Get(ctx context.Context, userID, id int64) (*model.Snippet, error) {
	return s.repo.GetSnippet(ctx, userID, id)
}

func (s *SnippetService) List(ctx context.Context, userID int64) ([]model.Snippet, error) {
	snippets, err := s.repo.ListSnippets(ctx, userID)
	if err != nil {
		logFailure(s.logger, "failed to list snippets", err, slog.Int64("userID", userID))
		return nil, err
	}
	return snippets, nil
}

func (s *SnippetService) Update(ctx context.Context, userID int64, req model.UpdateSnippetRequest) (*model.Snippet, error) {
	snippet, err := s.repo.UpdateSnippet(ctx, userID, req.ID, req.Patch())
	if err != nil {
		logFailure(s.logger, "failed to update snippet", err, slog.Int64("id", req.ID))
		return nil, err
	}

	s.logger.Info("snippet updated", slog.Int64("id", snippet.ID))
	return snippet, nil
}

func (s *SnippetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.repo.DeleteSnippet(ctx, userID, id); err != nil {
		logFailure(s.logger, "failed to delete snippet", err, slog.Int64("id", id))
		return err
	}

	s.logger.Info("snippet deleted", slog.Int64("id", id))
	return nil
}

// Search matches q against title, code, tags and language.
func (s *SnippetService) Search(ctx context.Context, userID int64, q string) ([]model.Snippet, error) {
	if q == "" {
		return nil, apperror.ValidationFailed("q", queryRequired)
	}
	snippets, err := s.repo.SearchSnippets(ctx, userID, q)
	if err != nil {
		logFailure(s.logger, "failed to search snippets", err)
		return nil, err
	}
	return snippets, nil
}

func (s *SnippetService) FilterByTag(ctx context.Context, userID int64, tag string) ([]model.Snippet, error) {
	return s.filter(ctx, userID, repository.FieldTags, "tag", tag)
}

func (s *SnippetService) FilterByTitle(ctx context.Context, userID int64, title string) ([]model.Snippet, error) {
	return s.filter(ctx, userID, repository.FieldTitle, "title", title)
}

func (s *SnippetService) FilterByLanguage(ctx context.Context, userID int64, language string) ([]model.Snippet, error) {
	return s.filter(ctx, userID, repository.FieldLanguage, "language", language)
}

func (s *SnippetService) filter(ctx context.Context, userID int64, field repository.Field, label, value string) ([]model.Snippet, error) {
	snippets, err := s.repo.FilterSnippets(ctx, userID, field, value)
	if err != nil {
		logFailure(s.logger, "failed to filter snippets", err, slog.String("field", string(field)))
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, apperror.NoMatches("snippets", label, value)
	}
	return snippets, nil
}
