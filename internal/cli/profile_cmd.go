package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().String("status", "", "set a new status")
	profileCmd.Flags().String("picture", "", "upload a new profile picture from this path")
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		if err := requireLogin(a); err != nil {
			return err
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		p, err := a.Profiles.Caller(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}

		if cmd.Flags().Changed("status") || cmd.Flags().Changed("picture") {
			status, _ := cmd.Flags().GetString("status")
			picture, _ := cmd.Flags().GetString("picture")
			if !cmd.Flags().Changed("status") && p != nil {
				status = p.Status
			}
			if err := a.UpdateProfile(ctx, picture, status); err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			if p, err = a.Profiles.Caller(ctx); err != nil {
				return fmt.Errorf("failed to fetch profile: %w", err)
			}
		}

		if p == nil {
			fmt.Fprintln(out, "No profile yet.")
			return nil
		}
		fmt.Fprintf(out, "Username: %s\n", p.Username)
		fmt.Fprintf(out, "Status:   %s\n", p.Status)
		if p.ProfilePicture != nil {
			fmt.Fprintf(out, "Picture:  %s\n", p.ProfilePicture.DirectURL())
		}
		return nil
	},
}
