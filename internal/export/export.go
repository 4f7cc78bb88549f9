// Package export renders entries and snippets as downloadable Markdown or
// JSON documents.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sakif/devlog/internal/model"
)

// Format is a downloadable document type.
type Format string

const (
	Markdown Format = "md"
	JSON     Format = "json"
)

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	if f == JSON {
		return "application/json"
	}
	return "text/markdown; charset=utf-8"
}

// Document is a rendered file ready to be sent as an attachment.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type entryDoc struct {
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Tags    *string `json:"tags"`
}

type snippetDoc struct {
	Title       string  `json:"title"`
	Code        string  `json:"code"`
	Language    string  `json:"language"`
	Description string  `json:"description"`
	Tags        *string `json:"tags"`
}

// Entry renders e in format f. The file is named "Entry {id}.{ext}".
func Entry(e *model.Entry, f Format) (*Document, error) {
	var body []byte
	switch f {
	case Markdown:
		body = EntryMarkdown(e)
	case JSON:
		var err error
		body, err = json.Marshal(entryDoc{Title: e.Title, Content: e.Content, Tags: e.Tags})
		if err != nil {
			return nil, fmt.Errorf("export: encoding entry %d: %w", e.ID, err)
		}
	default:
		return nil, fmt.Errorf("export: unknown format %q", f)
	}
	return &Document{
		Filename:    fmt.Sprintf("Entry %d.%s", e.ID, f),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

// Snippet renders s in format f. The file is named "Snippet {id}.{ext}".
func Snippet(s *model.Snippet, f Format) (*Document, error) {
	var body []byte
	switch f {
	case Markdown:
		body = SnippetMarkdown(s)
	case JSON:
		var err error
		body, err = json.Marshal(snippetDoc{
			Title:       s.Title,
			Code:        s.Code,
			Language:    s.Language,
			Description: s.Description,
			Tags:        s.Tags,
		})
		if err != nil {
			return nil, fmt.Errorf("export: encoding snippet %d: %w", s.ID, err)
		}
	default:
		return nil, fmt.Errorf("export: unknown format %q", f)
	}
	return &Document{
		Filename:    fmt.Sprintf("Snippet %d.%s", s.ID, f),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

// EntryMarkdown is the heading followed directly by the content, plus a
// Tags line when tags are set.
func EntryMarkdown(e *model.Entry) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n%s", e.Title, e.Content)
	if e.Tags != nil && *e.Tags != "" {
		fmt.Fprintf(&b, "\n\nTags: %s", *e.Tags)
	}
	return []byte(b.String())
}

// SnippetMarkdown puts the code in a fence tagged with the lower-cased
// language, then the description.
func SnippetMarkdown(s *model.Snippet) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n```%s\n%s", s.Title, strings.ToLower(s.Language), s.Code)
	if !strings.HasSuffix(s.Code, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString("```\n")
	if s.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", s.Description)
	}
	if s.Tags != nil && *s.Tags != "" {
		fmt.Fprintf(&b, "\nTags: %s\n", *s.Tags)
	}
	return []byte(b.String())
}
