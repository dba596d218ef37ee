package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"todo-client/app/controllers"
	"todo-client/app/models"
)

func newRecoverCmd(opts *rootOptions) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Reset a forgotten password with the security question",
		Long: `Reset a forgotten password. Answer the security question to get a
reset token, then choose a new password. Type "back" at the answer prompt
to start over with another username.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			p := newPrompter(cmd)
			flow := controllers.NewRecoveryFlow(a.gateway, a.log)

			for flow.Step() != controllers.StepDone {
				switch flow.Step() {
				case controllers.StepRequest:
					name, err := p.value(username, "Username")
					if err != nil {
						return err
					}
					username = ""
					if err := flow.Request(ctx, name); err != nil {
						return err
					}
				case controllers.StepChallenge:
					if err := flow.FetchQuestion(ctx); err != nil {
						return err
					}
					fmt.Fprintf(out, "Security question: %s\n", flow.Question())
				case controllers.StepAnswer:
					answer, err := p.ask("Answer")
					if errors.Is(err, io.EOF) {
						return fmt.Errorf("recovery abandoned")
					}
					if err != nil {
						return err
					}
					if answer == "back" {
						if err := flow.Back(); err != nil {
							return err
						}
						continue
					}
					err = flow.Verify(ctx, answer)
					switch {
					case errors.Is(err, controllers.ErrVerificationFailed), models.IsValidationError(err):
						fmt.Fprintln(out, "That answer was not accepted, try again.")
					case err != nil:
						fmt.Fprintln(out, err)
					}
				case controllers.StepReset:
					password, err := p.secret("New password")
					if err != nil {
						return err
					}
					confirm, err := p.secret("Confirm new password")
					if err != nil {
						return err
					}
					if err := flow.Reset(ctx, password, confirm); err != nil {
						fmt.Fprintln(out, err)
					}
				}
			}
			fmt.Fprintln(out, "Password reset. You can now log in with the new password.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account to recover")
	return cmd
}
