package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saravenpi/milkyway/internal/gallery"
)

func init() {
	rootCmd.AddCommand(galleryCmd)
}

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "List every photo, video and audio clip shared so far",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		if err := requireLogin(a); err != nil {
			return err
		}

		items, err := a.GalleryItems(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch gallery: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(items) == 0 {
			fmt.Fprintln(out, gallery.EmptyText)
			return nil
		}
		for _, item := range items {
			fmt.Fprintf(out, "%-6s %s\n", item.Kind, item.Ref.DirectURL())
		}
		return nil
	},
}
