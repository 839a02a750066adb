package main

import (
	"fmt"
	"os"
	"strings"

	"csync-go/internal/negotiate"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage engine remotes",
}

var remoteAddCmd = &cobra.Command{
	Use:   "add NAME BACKEND [KEY=VALUE...]",
	Short: "Configure a new remote",
	Long: `Configure a new remote. Static backends take their parameters as
KEY=VALUE arguments. Backends that authenticate with a personal login token
use --token, which prompts for the token and drives the engine's interactive
setup handshake.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		useToken, _ := cmd.Flags().GetBool("token")
		name, backend := args[0], args[1]
		params := args[2:]

		for _, p := range params {
			if !strings.Contains(p, "=") {
				return fmt.Errorf("parameter %q is not KEY=VALUE", p)
			}
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		exists, err := a.Client().RemoteExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("remote %q already exists", name)
		}

		if useToken {
			token, err := promptSecret("Personal login token: ")
			if err != nil {
				return err
			}

			session := negotiate.NewSession(name, backend)
			if err := a.Negotiator().Run(ctx, session, negotiate.PersonalTokenAnswers(token)); err != nil {
				return fmt.Errorf("setting up %s: %w", name, err)
			}
		} else {
			if err := a.Client().CreateRemote(ctx, name, backend, params); err != nil {
				return err
			}
		}

		fmt.Printf("Remote %q configured (%s)\n", name, backend)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured remotes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		names, err := a.Client().ListRemotes(ctx)
		if err != nil {
			return err
		}

		if len(names) == 0 {
			fmt.Println("No remotes configured.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	},
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Remove a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Client().DeleteRemote(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Remote %q deleted\n", args[0])
		return nil
	},
}

// promptSecret reads a line from the terminal without echoing it.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading secret: %w", err)
	}

	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("empty secret")
	}
	return secret, nil
}

func init() {
	remoteAddCmd.Flags().Bool("token", false, "Authenticate with a personal login token (interactive handshake)")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteDeleteCmd)
}
