package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saravenpi/milkyway/internal/conversation"
	"github.com/saravenpi/milkyway/internal/media"
	"github.com/saravenpi/milkyway/internal/models"
)

func init() {
	rootCmd.AddCommand(messagesCmd)
}

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Print the conversation grouped by day",
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
		_ = a.Resume(ctx)

		msgs, err := a.Sync.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch messages: %w", err)
		}

		names := map[models.Identity]string{}
		if self := a.Self(); self != "" {
			names[self] = a.Store.Current().Username
		}
		if other, err := a.Counterpart(ctx, msgs); err == nil && other != nil {
			names[other.ID] = other.Username
		}

		printRoom(cmd.OutOrStdout(), a.Room(msgs), names)
		return nil
	},
}

func printRoom(w io.Writer, items []conversation.DisplayItem, names map[models.Identity]string) {
	for _, item := range items {
		switch item.Kind {
		case conversation.ItemEmpty:
			fmt.Fprintln(w, item.Label)
		case conversation.ItemSeparator:
			fmt.Fprintf(w, "── %s ──\n", item.Label)
		case conversation.ItemMessage:
			m := item.Message
			name, ok := names[m.Sender]
			if !ok {
				name = string(m.Sender)
			}
			if item.Own {
				name = "you"
			}
			ts := m.Time(nil).Format("15:04")
			if m.Content != "" {
				fmt.Fprintf(w, "[%s] %s: %s\n", ts, name, m.Content)
			}
			if m.Media != nil {
				fmt.Fprintf(w, "[%s] %s: [%s] %s\n", ts, name, media.ClassifyReference(m.Media), m.Media.DirectURL())
			}
		}
	}
}
