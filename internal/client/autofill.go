package client

import (
	"context"
	"strings"

	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/model"
)

// Filled reports one field that was generated by the server.
type Filled struct {
	Kind  metagen.Kind
	Value string
}

// FillSnippet generates the blank title, tags and description of req from
// its code. Title goes first so the later prompts can use it. A failed
// generation leaves the field blank and is returned alongside what did fill.
func (c *Client) FillSnippet(ctx context.Context, req *model.CreateSnippetRequest) ([]Filled, error) {
	if strings.TrimSpace(req.Snippet) == "" {
		return nil, nil
	}

	var (
		filled   []Filled
		firstErr error
	)
	gen := func(kind metagen.Kind, set func(string)) {
		text, err := c.Generate(ctx, kind, model.GenerateRequest{
			Content:  req.Snippet,
			Language: req.Language,
			Title:    req.Title,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if text = strings.TrimSpace(text); text != "" {
			set(text)
			filled = append(filled, Filled{Kind: kind, Value: text})
		}
	}

	if strings.TrimSpace(req.Title) == "" {
		gen(metagen.KindTitle, func(s string) { req.Title = s })
	}
	if req.Tags == nil || strings.TrimSpace(*req.Tags) == "" {
		gen(metagen.KindTags, func(s string) { req.Tags = &s })
	}
	if strings.TrimSpace(req.Description) == "" {
		gen(metagen.KindDescription, func(s string) { req.Description = s })
	}
	return filled, firstErr
}
