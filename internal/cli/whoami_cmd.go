package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		out := cmd.OutOrStdout()
		if !a.Authenticated() {
			fmt.Fprintln(out, "Not logged in.")
			return nil
		}

		fmt.Fprintln(out, a.Store.Current().Username)
		p, err := a.Profiles.Caller(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		if p != nil && p.Status != "" {
			fmt.Fprintf(out, "Status: %s\n", p.Status)
		}
		return nil
	},
}
