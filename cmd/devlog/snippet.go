package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/client"
	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/model"
)

// autoValue asks update to generate the field instead of setting it.
const autoValue = "auto"

func (a *app) snippetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snippet",
		Aliases: []string{"snippets"},
		Short:   "Manage code snippets",
	}
	cmd.AddCommand(
		a.snippetCreateCmd(),
		&cobra.Command{
			Use:   "list",
			Short: "List your snippets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				snippets, err := c.ListSnippets(cmd.Context())
				if err != nil {
					return err
				}
				a.printSnippets(snippets)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show one snippet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := a.authed()
				if err != nil {
					return err
				}
				s, err := c.GetSnippet(cmd.Context(), id)
				if err != nil {
					return err
				}
				a.printSnippet(s)
				return nil
			},
		},
		a.snippetUpdateCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a snippet",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				c, err := a.authed()
				if err != nil {
					return err
				}
				if err := c.DeleteSnippet(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted snippet %d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "search QUERY",
			Short: "Search snippet titles, code, language, description and tags",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				snippets, err := c.SearchSnippets(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printSnippets(snippets)
				return nil
			},
		},
		&cobra.Command{
			Use:       "filter tag|title|language VALUE",
			Short:     "Filter snippets by tag, title or language",
			Args:      cobra.MatchAll(cobra.ExactArgs(2), validFilterField("tag", "title", "language")),
			ValidArgs: []string{"tag", "title", "language"},
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				snippets, err := c.FilterSnippets(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				a.printSnippets(snippets)
				return nil
			},
		},
		a.exportCmd("snippet"),
	)
	return cmd
}

func (a *app) snippetCreateCmd() *cobra.Command {
	var (
		req    model.CreateSnippetRequest
		tags   string
		noAuto bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a snippet",
		Long: `Create a snippet. --code accepts "-" for standard input or @path for a file.
Blank title, tags and description are generated from the code unless --no-auto is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := a.readText(req.Snippet)
			if err != nil {
				return err
			}
			req.Snippet = code
			if tags != "" {
				req.Tags = &tags
			}

			c, err := a.authed()
			if err != nil {
				return err
			}

			if !noAuto {
				filled, err := c.FillSnippet(cmd.Context(), &req)
				for _, f := range filled {
					fmt.Fprintf(a.out, "Auto-generated %s: %s\n", f.Kind, f.Value)
				}
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: metadata generation failed: %v\n", err)
				}
			}

			s, err := c.CreateSnippet(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Snippet created with ID: %d\n", s.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "snippet title")
	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "programming language")
	cmd.Flags().StringVarP(&req.Snippet, "code", "c", "", "snippet code")
	cmd.Flags().StringVarP(&req.Description, "description", "d", "", "what the snippet does")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	cmd.Flags().BoolVar(&noAuto, "no-auto", false, "do not generate blank fields")
	_ = cmd.MarkFlagRequired("language")
	_ = cmd.MarkFlagRequired("code")
	return cmd
}

func (a *app) snippetUpdateCmd() *cobra.Command {
	var title, language, code, description, tags string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change selected fields of a snippet",
		Long:  `Change selected fields of a snippet. Pass "auto" as --title, --tags or --description to generate it from the code.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := a.authed()
			if err != nil {
				return err
			}

			req := model.UpdateSnippetRequest{ID: id}
			flags := cmd.Flags()
			if flags.Changed("code") {
				text, err := a.readText(code)
				if err != nil {
					return err
				}
				req.Snippet = &text
			}
			if flags.Changed("language") {
				req.Language = &language
			}
			for _, f := range []struct {
				name  string
				value string
				dst   **string
			}{
				{"title", title, &req.Title},
				{"tags", tags, &req.Tags},
				{"description", description, &req.Description},
			} {
				if flags.Changed(f.name) {
					v := f.value
					*f.dst = &v
				}
			}

			if err := a.resolveAuto(cmd.Context(), c, &req); err != nil {
				return err
			}
			if req.Title == nil && req.Language == nil && req.Snippet == nil && req.Description == nil && req.Tags == nil {
				return errors.New("nothing to update: pass at least one field flag")
			}

			s, err := c.UpdateSnippet(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printSnippet(s)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", `new title, or "auto"`)
	cmd.Flags().StringVarP(&language, "language", "l", "", "new language")
	cmd.Flags().StringVarP(&code, "code", "c", "", `new code ("-" or @path accepted)`)
	cmd.Flags().StringVarP(&description, "description", "d", "", `new description, or "auto"`)
	cmd.Flags().StringVar(&tags, "tags", "", `new comma-separated tags, or "auto"`)
	return cmd
}

// resolveAuto replaces every "auto" field of req with generated text, using
// the new code when given and the stored snippet otherwise.
func (a *app) resolveAuto(ctx context.Context, c *client.Client, req *model.UpdateSnippetRequest) error {
	targets := []struct {
		kind metagen.Kind
		dst  **string
	}{
		{metagen.KindTitle, &req.Title},
		{metagen.KindTags, &req.Tags},
		{metagen.KindDescription, &req.Description},
	}

	var current *model.Snippet
	for _, t := range targets {
		if *t.dst == nil || **t.dst != autoValue {
			continue
		}
		if current == nil {
			s, err := c.GetSnippet(ctx, req.ID)
			if err != nil {
				return err
			}
			current = s
		}

		gen := model.GenerateRequest{Content: current.Code, Language: current.Language, Title: current.Title}
		if req.Snippet != nil {
			gen.Content = *req.Snippet
		}
		if req.Language != nil {
			gen.Language = *req.Language
		}
		if req.Title != nil && *req.Title != autoValue {
			gen.Title = *req.Title
		}

		text, err := c.Generate(ctx, t.kind, gen)
		if err != nil {
			return fmt.Errorf("generating %s: %w", t.kind, err)
		}
		fmt.Fprintf(a.out, "Auto-generated %s: %s\n", t.kind, text)
		*t.dst = &text
	}
	return nil
}
