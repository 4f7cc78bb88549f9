// Command devlog is the command-line client for a devlog server.
//
//	devlog login -u alice
//	devlog entry create --title "Notes" --content "..." --tags go,http
//	devlog snippet create --language go --file main.go
//	devlog snippet export 3 --format md
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/client"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries the global flags and I/O shared by every subcommand.
type app struct {
	server    string
	credsPath string
	in        io.Reader
	out       io.Writer
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "devlog",
		Short:         "Personal knowledge base: entries and code snippets",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(in)
	root.SetOut(out)

	root.PersistentFlags().StringVar(&a.server, "server", os.Getenv("DEVLOG_SERVER"),
		"API base URL (default: saved login, then "+client.DefaultBaseURL+")")
	root.PersistentFlags().StringVar(&a.credsPath, "credentials", "",
		"credentials file (default ~/.devlog/credentials.yaml)")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.entryCmd(),
		a.snippetCmd(),
		a.autogenCmd(),
	)
	return root
}

func (a *app) credentialsPath() (string, error) {
	if a.credsPath != "" {
		return a.credsPath, nil
	}
	return client.DefaultCredentialsPath()
}

// anonymous returns a client without a token, for register and login.
func (a *app) anonymous() *client.Client {
	return client.New(a.server)
}

// authed returns a client carrying the saved token.
func (a *app) authed() (*client.Client, error) {
	path, err := a.credentialsPath()
	if err != nil {
		return nil, err
	}
	creds, err := client.LoadCredentials(path)
	if err != nil {
		return nil, err
	}

	server := a.server
	if server == "" {
		server = creds.Server
	}
	return client.New(server, client.WithToken(creds.Token)), nil
}
