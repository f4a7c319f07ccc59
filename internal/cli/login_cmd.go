package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/saravenpi/milkyway/internal/backend"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("username", "u", "", "username to log in with")
	loginCmd.Flags().StringP("password", "p", "", "password (prompted for when omitted)")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")

		out := cmd.OutOrStdout()
		in := bufio.NewReader(cmd.InOrStdin())

		if username == "" {
			fmt.Fprint(out, "Username: ")
			line, err := in.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read username: %w", err)
			}
			username = strings.TrimSpace(line)
		}
		if password == "" {
			fmt.Fprint(out, "Password: ")
			var err error
			password, err = readPassword(cmd.InOrStdin(), in)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}
		if username == "" || password == "" {
			return fmt.Errorf("username and password are required")
		}

		a, closeApp, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp()

		p, err := a.Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("%s", backend.LoginErrorMessage(err))
		}

		name := strings.ToLower(username)
		if p != nil && p.Username != "" {
			name = p.Username
		}
		fmt.Fprintf(out, "Logged in as %s\n", name)
		return nil
	},
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func readPassword(r io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	line, err := buffered.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
