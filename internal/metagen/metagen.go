// Package metagen suggests a title, description or tags for a piece of
// content by asking a generative-text backend.
//
// Backend output is untrusted. It is stripped of markup and normalised
// before it reaches the caller, and nothing here touches the record store.
package metagen

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sakif/devlog/internal/apperror"
	"github.com/sakif/devlog/internal/model"
)

const (
	DefaultTimeout = 20 * time.Second
	MaxTags        = 6
)

// Kind names one of the three generated fields.
type Kind string

const (
	KindTitle       Kind = "title"
	KindDescription Kind = "description"
	KindTags        Kind = "tags"
)

// Generator sends a single prompt to a text backend and returns its reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Recorder observes the outcome of each generation. outcome is "ok" or
// "error".
type Recorder interface {
	ObserveGeneration(kind, outcome string)
}

// Service turns record text into a title, description or tag list using a
// Generator, bounding every call by a timeout.
type Service struct {
	gen      Generator
	timeout  time.Duration
	policy   *bluemonday.Policy
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each generation call. Non-positive values keep
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithRecorder reports each generation outcome to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// NewService wraps gen. A nil gen yields a Service whose every call fails
// with apperror.ErrUnavailable.
func NewService(gen Generator, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		gen:     gen,
		timeout: DefaultTimeout,
		policy:  bluemonday.StrictPolicy(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether a backend is configured.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

func (s *Service) Title(ctx context.Context, req model.GenerateRequest) (string, error) {
	return s.generate(ctx, KindTitle, req)
}

func (s *Service) Description(ctx context.Context, req model.GenerateRequest) (string, error) {
	return s.generate(ctx, KindDescription, req)
}

// Tags returns a comma-separated list of at most MaxTags lower-cased tags.
func (s *Service) Tags(ctx context.Context, req model.GenerateRequest) (string, error) {
	return s.generate(ctx, KindTags, req)
}

func (s *Service) generate(ctx context.Context, kind Kind, req model.GenerateRequest) (string, error) {
	if s.gen == nil {
		return "", apperror.Unavailable("Metadata generation is not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	raw, err := s.gen.Generate(ctx, Prompt(kind, req))
	if err != nil {
		s.observe(kind, "error")
		s.logger.Warn("metadata generation failed",
			slog.String("kind", string(kind)),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, context.DeadlineExceeded) {
			return "", apperror.Unavailable("Metadata generation timed out", nil)
		}
		return "", apperror.Unavailable("Metadata generation failed", err)
	}

	out := s.normalize(kind, raw)
	if out == "" {
		s.observe(kind, "error")
		return "", apperror.Unavailable("Metadata generation returned no text", nil)
	}

	s.observe(kind, "ok")
	s.logger.Debug("metadata generated",
		slog.String("kind", string(kind)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (s *Service) observe(kind Kind, outcome string) {
	if s.recorder != nil {
		s.recorder.ObserveGeneration(string(kind), outcome)
	}
}

// normalize strips markup from raw and shapes it for kind.
func (s *Service) normalize(kind Kind, raw string) string {
	text := html.UnescapeString(s.policy.Sanitize(raw))
	switch kind {
	case KindTitle:
		return NormalizeTitle(text)
	case KindDescription:
		return NormalizeDescription(text)
	case KindTags:
		return NormalizeTags(text)
	}
	return strings.TrimSpace(text)
}

const decoration = "\"'`*_#> \t"

// NormalizeTitle keeps the first non-empty line without quotes, markdown
// markers or a leading "Title:" label.
func NormalizeTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, decoration)
		if lower := strings.ToLower(line); strings.HasPrefix(lower, "title:") {
			line = strings.Trim(line[len("title:"):], decoration)
		}
		if line != "" {
			return line
		}
	}
	return ""
}

// NormalizeDescription collapses all whitespace runs into single spaces.
func NormalizeDescription(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// NormalizeTags splits on commas and newlines, lower-cases, drops
// duplicates and empties, and keeps at most MaxTags.
func NormalizeTags(text string) string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '\n'
	})

	seen := make(map[string]bool, len(parts))
	tags := make([]string, 0, MaxTags)
	for _, p := range parts {
		tag := strings.ToLower(strings.Trim(p, decoration+"-•.\r"))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
		if len(tags) == MaxTags {
			break
		}
	}
	return strings.Join(tags, ", ")
}

// Prompt builds the instruction sent to the backend for kind.
func Prompt(kind Kind, req model.GenerateRequest) string {
	switch kind {
	case KindTitle:
		return fmt.Sprintf(titlePrompt, req.Content)
	case KindDescription:
		return fmt.Sprintf(descriptionPrompt, req.Title, req.Language, req.Content)
	case KindTags:
		return fmt.Sprintf(tagsPrompt, req.Title, req.Language, req.Content)
	}
	return req.Content
}

const titlePrompt = `Generate a short and clear TITLE for the following code snippet or markdown documentation. Only return the title, nothing else.

%s`

const descriptionPrompt = `Generate a very short description (maximum 2 lines, around 20-30 words total)
for the following code snippet or technical content.

Your output must:
- Be concise
- Be easy to understand
- Be helpful for developers
- NOT include unnecessary details
- Return ONLY the description text (no title, no bullet points, no explanations)

Title: %s
Language: %s
Content:
%s
`

const tagsPrompt = `Based on the following code snippet or technical content, generate 3 to 6 SHORT, meaningful TAGS.

Rules:
- Tags must be single words or very short phrases.
- DO NOT include '#', bullet points, numbering, or explanations.
- DO NOT include quotes or formatting.
- Return ONLY the tags separated by commas (example: sorting, python, arrays).
- No extra text before or after.

Title: %s
Language: %s
Content:
%s
`
