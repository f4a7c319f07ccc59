package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringP("file", "f", "", "attach a photo, video or audio file")
	sendCmd.Flags().Duration("voice", 0, "record a voice note of the given length (e.g. 5s)")
}

var sendCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Send a text message, a file or a voice note",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		voice, _ := cmd.Flags().GetDuration("voice")

		var text string
		if len(args) == 1 {
			text = args[0]
		}

		chosen := 0
		for _, set := range []bool{strings.TrimSpace(text) != "", file != "", voice > 0} {
			if set {
				chosen++
			}
		}
		if chosen == 0 {
			return fmt.Errorf("nothing to send: pass text, --file or --voice")
		}
		if chosen > 1 {
			return fmt.Errorf("send text, a file or a voice note, one at a time")
		}

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

		switch {
		case file != "":
			if err := a.AttachFile(ctx, file); err != nil {
				return err
			}
			fmt.Fprintln(out, "File sent.")

		case voice > 0:
			if err := a.StartRecording(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Recording for %s...\n", voice)
			select {
			case <-time.After(voice):
			case <-ctx.Done():
				a.Composer.CancelRecording()
				return ctx.Err()
			}
			if err := a.StopRecording(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "Voice note sent.")

		default:
			if err := a.Composer.SetText(text); err != nil {
				return err
			}
			if err := a.SendText(ctx); err != nil {
				return fmt.Errorf("failed to send message: %w", err)
			}
			fmt.Fprintln(out, "Message sent.")
		}
		return nil
	},
}
