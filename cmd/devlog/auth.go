package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/devlog/internal/client"
	"github.com/sakif/devlog/internal/model"
)

func (a *app) registerCmd() *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Password == "" {
				pw, err := a.readLine("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}
			msg, err := a.anonymous().Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, msg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var req model.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Username == "" && req.Email == "" {
				return errors.New("one of --username or --email is required")
			}
			if req.Password == "" {
				pw, err := a.readLine("Password: ")
				if err != nil {
					return err
				}
				req.Password = pw
			}

			c := a.anonymous()
			res, err := c.Login(cmd.Context(), req)
			if err != nil {
				return err
			}

			path, err := a.credentialsPath()
			if err != nil {
				return err
			}
			err = client.SaveCredentials(path, &client.Credentials{
				Server:   c.BaseURL(),
				Username: res.Username,
				Token:    res.AccessToken,
				SavedAt:  time.Now().UTC(),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s. Logged in as %s.\n", res.Message, res.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "email address, instead of username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved access token",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			path, err := a.credentialsPath()
			if err != nil {
				return err
			}
			if err := client.RemoveCredentials(path); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.authed()
			if err != nil {
				return err
			}
			u, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s <%s> (id %d, since %s)\n", u.Username, u.Email, u.ID, u.CreatedAt.Format(time.DateOnly))
			return nil
		},
	}
}
