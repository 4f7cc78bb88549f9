package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/model"
)

func (a *app) entryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entry",
		Aliases: []string{"entries"},
		Short:   "Manage journal entries",
	}
	cmd.AddCommand(
		a.entryCreateCmd(),
		&cobra.Command{
			Use:   "list",
			Short: "List your entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				entries, err := c.ListEntries(cmd.Context())
				if err != nil {
					return err
				}
				a.printEntries(entries)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get ID",
			Short: "Show one entry",
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
				e, err := c.GetEntry(cmd.Context(), id)
				if err != nil {
					return err
				}
				a.printEntry(e)
				return nil
			},
		},
		a.entryUpdateCmd(),
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete an entry",
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
				if err := c.DeleteEntry(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted entry %d\n", id)
				return nil
			},
		},
		&cobra.Command{
			Use:   "search QUERY",
			Short: "Search entry titles, content and tags",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				entries, err := c.SearchEntries(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				a.printEntries(entries)
				return nil
			},
		},
		&cobra.Command{
			Use:       "filter tag|title VALUE",
			Short:     "Filter entries by tag or title",
			Args:      cobra.MatchAll(cobra.ExactArgs(2), validFilterField("tag", "title")),
			ValidArgs: []string{"tag", "title"},
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := a.authed()
				if err != nil {
					return err
				}
				entries, err := c.FilterEntries(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				a.printEntries(entries)
				return nil
			},
		},
		a.exportCmd("entry"),
	)
	return cmd
}

func (a *app) entryCreateCmd() *cobra.Command {
	var req model.CreateEntryRequest
	var tags string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an entry",
		Long:  "Create an entry. --content accepts \"-\" for standard input or @path for a file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			content, err := a.readText(req.Content)
			if err != nil {
				return err
			}
			req.Content = content
			if cmd.Flags().Changed("tags") {
				req.Tags = &tags
			}

			c, err := a.authed()
			if err != nil {
				return err
			}
			e, err := c.CreateEntry(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Entry created with ID: %d\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Title, "title", "t", "", "entry title")
	cmd.Flags().StringVarP(&req.Content, "content", "c", "", "entry body")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func (a *app) entryUpdateCmd() *cobra.Command {
	var title, content, tags string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change selected fields of an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := model.UpdateEntryRequest{ID: id}
			flags := cmd.Flags()
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("content") {
				text, err := a.readText(content)
				if err != nil {
					return err
				}
				req.Content = &text
			}
			if flags.Changed("tags") {
				req.Tags = &tags
			}
			if req.Title == nil && req.Content == nil && req.Tags == nil {
				return errors.New("nothing to update: pass --title, --content or --tags")
			}

			c, err := a.authed()
			if err != nil {
				return err
			}
			e, err := c.UpdateEntry(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printEntry(e)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new body (\"-\" or @path accepted)")
	cmd.Flags().StringVar(&tags, "tags", "", "new comma-separated tags")
	return cmd
}

// validFilterField checks the first positional argument against fields.
func validFilterField(fields ...string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		for _, f := range fields {
			if args[0] == f {
				return nil
			}
		}
		return fmt.Errorf("cannot filter by %q: want one of %v", args[0], fields)
	}
}

func (a *app) exportCmd(resource string) *cobra.Command {
	var format, dir string

	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Download a " + resource + " as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f, err := parseFormat(format)
			if err != nil {
				return err
			}
			c, err := a.authed()
			if err != nil {
				return err
			}

			exportFn := c.ExportEntry
			if resource == "snippet" {
				exportFn = c.ExportSnippet
			}
			doc, err := exportFn(cmd.Context(), id, f)
			if err != nil {
				return err
			}
			return a.saveDocument(doc, dir)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md or json")
	cmd.Flags().StringVarP(&dir, "output", "o", ".", `directory to save into, or "-" for stdout`)
	return cmd
}
