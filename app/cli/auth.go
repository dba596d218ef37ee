package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"todo-client/app/models"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			p := newPrompter(cmd)
			if creds.Username, err = p.value(creds.Username, "Username"); err != nil {
				return err
			}
			if creds.Password, err = p.secretValue(creds.Password, "Password"); err != nil {
				return err
			}
			if creds.Username == "" || creds.Password == "" {
				return &models.ValidationError{Field: "username", Message: "username and password are required"}
			}

			user, err := a.gateway.Login(cmd.Context(), creds)
			if err != nil {
				return fmt.Errorf("Failed to log in: %w", err)
			}
			name := creds.Username
			if user != nil && user.Username != "" {
				name = user.Username
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&creds.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&creds.Password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(opts *rootOptions) *cobra.Command {
	var reg models.Registration
	var confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(cmd)
			var err error
			if reg.Username, err = p.value(reg.Username, "Username"); err != nil {
				return err
			}
			if reg.Email, err = p.value(reg.Email, "Email"); err != nil {
				return err
			}
			if reg.Password, err = p.secretValue(reg.Password, "Password"); err != nil {
				return err
			}
			if confirm, err = p.secretValue(confirm, "Confirm password"); err != nil {
				return err
			}
			if reg.SecurityQuestion, err = p.value(reg.SecurityQuestion, "Security question"); err != nil {
				return err
			}
			if reg.SecurityAnswer, err = p.value(reg.SecurityAnswer, "Security answer"); err != nil {
				return err
			}
			if err := reg.Validate(confirm); err != nil {
				return err
			}

			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if _, err := a.gateway.Register(cmd.Context(), reg); err != nil {
				return fmt.Errorf("Failed to register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", reg.Username)
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&reg.Username, "username", "u", "", "account name")
	flags.StringVar(&reg.Email, "email", "", "email address")
	flags.StringVarP(&reg.Password, "password", "p", "", "password, at least 6 characters")
	flags.StringVar(&confirm, "confirm", "", "password confirmation")
	flags.StringVar(&reg.SecurityQuestion, "question", "", "security question for password recovery")
	flags.StringVar(&reg.SecurityAnswer, "answer", "", "answer to the security question")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.gateway.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireLogin(cmd.Context()); err != nil {
				return err
			}
			user, err := a.provider.User(cmd.Context())
			if err != nil {
				return err
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
				return nil
			}
			if done, err := render(cmd.OutOrStdout(), opts.output, user); done {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Username, user.Email)
			return nil
		},
	}
}
