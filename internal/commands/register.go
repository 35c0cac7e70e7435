package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRegisterCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create a local account from --email and --password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(a *app) error {
				result, apiErr := a.auth.Register(cmd.Context(), opts.email, opts.password)
				if apiErr != nil {
					return fmt.Errorf("register: %s", apiErr.Message)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", result.User.Email)
				return nil
			})
		},
	}
}
