package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sakif/devlog/internal/export"
	"github.com/sakif/devlog/internal/model"
)

func (a *app) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readText resolves a text flag: "-" reads standard input, "@path" reads a
// file, anything else is used as given.
func (a *app) readText(value string) (string, error) {
	switch {
	case value == "-":
		raw, err := io.ReadAll(a.in)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	case strings.HasPrefix(value, "@"):
		raw, err := os.ReadFile(value[1:])
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return value, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseFormat(s string) (export.Format, error) {
	switch f := export.Format(strings.ToLower(s)); f {
	case export.Markdown, export.JSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want md or json)", s)
}

func tagsOf(tags *string) string {
	if tags == nil {
		return "-"
	}
	return *tags
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > n {
		return string(r[:n-1]) + "…"
	}
	return s
}

func (a *app) printEntries(entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTAGS\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, truncate(e.Title, 40), tagsOf(e.Tags), e.UpdatedAt.Format(time.DateTime))
	}
	_ = tw.Flush()
}

func (a *app) printEntry(e *model.Entry) {
	fmt.Fprintf(a.out, "# %s\n\n%s\n\nTags: %s\nID: %d  Updated: %s\n",
		e.Title, e.Content, tagsOf(e.Tags), e.ID, e.UpdatedAt.Format(time.DateTime))
}

func (a *app) printSnippets(snippets []model.Snippet) {
	if len(snippets) == 0 {
		fmt.Fprintln(a.out, "No snippets.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tLANGUAGE\tTAGS\tDESCRIPTION")
	for _, s := range snippets {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ID, truncate(s.Title, 32), s.Language, tagsOf(s.Tags), truncate(s.Description, 48))
	}
	_ = tw.Flush()
}

func (a *app) printSnippet(s *model.Snippet) {
	rule := strings.Repeat("-", 72)
	fmt.Fprintf(a.out, "%s  [%s]  Tags: %s\n%s\n%s\n%s\n", s.Title, s.Language, tagsOf(s.Tags), rule, s.Code, rule)
	if s.Description != "" {
		fmt.Fprintf(a.out, "%s\n", s.Description)
	}
}

// saveDocument writes an export into dir under the server-chosen filename,
// or to standard output when dir is "-".
func (a *app) saveDocument(doc *export.Document, dir string) error {
	if dir == "-" {
		_, err := a.out.Write(doc.Body)
		return err
	}

	name := filepath.Base(doc.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return errors.New("server response has no filename")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	return nil
}
