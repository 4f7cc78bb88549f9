package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/metagen"
	"github.com/sakif/devlog/internal/model"
)

func (a *app) autogenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autogen",
		Short: "Generate a title, description or tags for some text",
	}
	for _, kind := range []metagen.Kind{metagen.KindTitle, metagen.KindDescription, metagen.KindTags} {
		cmd.AddCommand(a.autogenKindCmd(kind))
	}
	return cmd
}

func (a *app) autogenKindCmd(kind metagen.Kind) *cobra.Command {
	var req model.GenerateRequest

	cmd := &cobra.Command{
		Use:   string(kind) + " CONTENT",
		Short: "Generate a " + string(kind),
		Long:  `CONTENT may be "-" for standard input or @path for a file.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.readText(args[0])
			if err != nil {
				return err
			}
			req.Content = content

			c, err := a.authed()
			if err != nil {
				return err
			}
			text, err := c.Generate(cmd.Context(), kind, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, text)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Language, "language", "l", "", "language hint")
	if kind != metagen.KindTitle {
		cmd.Flags().StringVarP(&req.Title, "title", "t", "", "title hint")
	}
	return cmd
}
