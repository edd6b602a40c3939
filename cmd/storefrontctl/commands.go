package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ariefcatur/go-storefront/internal/accounts"
	"github.com/ariefcatur/go-storefront/internal/app"
	"github.com/ariefcatur/go-storefront/internal/audit"
	"github.com/ariefcatur/go-storefront/internal/browse"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/session"
	"github.com/spf13/cobra"
)

type opener func(ctx context.Context) (*app.App, error)

func newRootCmd(cfg config.Config, open opener) *cobra.Command {
	var email, password string

	root := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Operate on a storefront data store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&email, "email", cfg.AdminEmail, "admin account used for user commands")
	root.PersistentFlags().StringVar(&password, "password", cfg.AdminPassword, "password of the admin account")

	// withAdmin opens the store, signs in and hands the app to fn. User
	// commands go through the same admin checks as the HTTP surface.
	withAdmin := func(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
		return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
			return signedIn(ctx, a.Accounts, email, password, func() error { return fn(ctx, a) })
		})
	}

	users := &cobra.Command{Use: "users", Short: "Bulk user exchange"}

	var output string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write every account as JSON, without password digests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, func(ctx context.Context, a *app.App) error {
				data, err := a.Guard.ExportUsers(ctx)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(append(data, '\n'))
					return err
				}
				if err := os.WriteFile(output, data, 0o600); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", output)
				return nil
			})
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Add accounts from a JSON export; duplicates are skipped",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return withAdmin(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Guard.ImportUsers(ctx, data)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			})
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count accounts and admins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withAdmin(cmd, func(ctx context.Context, a *app.App) error {
				return printJSON(cmd.OutOrStdout(), a.Accounts.Stats())
			})
		},
	}
	users.AddCommand(export, importCmd, stats)

	catalogCmd := &cobra.Command{Use: "catalog", Short: "Catalog maintenance"}
	seed := &cobra.Command{
		Use:   "seed",
		Short: "Load the bundled pieces into a never-initialized catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				seeded, err := a.Catalog.Seed(ctx)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "catalog already initialized")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d pieces\n", len(a.Catalog.GetAll()))
				return nil
			})
		},
	}
	catalogStats := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				all := a.Catalog.GetAll()
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"stats":      browse.Summarize(all),
					"vibes":      browse.Vibes(all),
					"categories": browse.Categories(all),
				})
			})
		},
	}
	catalogCmd.AddCommand(seed, catalogStats)

	auditCmd := &cobra.Command{Use: "audit", Short: "Read the order audit trail"}
	show := &cobra.Command{
		Use:   "show <order-id>",
		Short: "List the audited events of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := postgres.Connect(ctx, cfg.PostgresDSN, 2)
			if err != nil {
				return err
			}
			defer db.Close()
			entries, err := (&audit.Repo{DB: db}).ByOrder(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), entries)
		},
	}
	auditCmd.AddCommand(show)

	root.AddCommand(users, catalogCmd, auditCmd)
	return root
}

type signer interface {
	Authenticate(ctx context.Context, email, password string) (session.Session, accounts.User, error)
	Logout(ctx context.Context) error
}

// signedIn runs fn inside a session for email. A failed sign-out is
// reported alongside fn's own error.
func signedIn(ctx context.Context, acc signer, email, password string, fn func() error) (err error) {
	if _, _, err := acc.Authenticate(ctx, email, password); err != nil {
		return fmt.Errorf("sign in as %q: %w", email, err)
	}
	defer func() {
		if lerr := acc.Logout(ctx); lerr != nil {
			err = errors.Join(err, fmt.Errorf("sign out: %w", lerr))
		}
	}()
	return fn()
}

func withApp(cmd *cobra.Command, open opener, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := open(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(ctx, a)
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
