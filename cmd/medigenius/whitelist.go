package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"medigenius/internal/database"
	"medigenius/internal/models"
	"medigenius/internal/store"
)

// whitelistManager is the subset of the store these commands drive.
type whitelistManager interface {
	List(ctx context.Context) ([]models.WhitelistEntry, error)
	Add(ctx context.Context, entry models.WhitelistEntry) (*models.WhitelistEntry, error)
	Remove(ctx context.Context, identifier string) (bool, error)
}

// withWhitelist opens the database for the duration of fn.
func withWhitelist(fn func(whitelistManager) error) error {
	cfg, flush, err := setup()
	if err != nil {
		return err
	}
	defer flush()

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	return fn(store.NewWhitelistStore(db))
}

func newWhitelistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Manage who may sign in",
	}

	var addedBy string
	add := &cobra.Command{
		Use:   "add <email|domain>",
		Short: "Allow an email address or a whole domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWhitelist(func(m whitelistManager) error {
				return whitelistAdd(cmd.Context(), cmd.OutOrStdout(), m, args[0], addedBy)
			})
		},
	}
	add.Flags().StringVar(&addedBy, "by", "cli", "recorded as the entry's creator")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List active entries",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWhitelist(func(m whitelistManager) error {
					return whitelistList(cmd.Context(), cmd.OutOrStdout(), m)
				})
			},
		},
		add,
		&cobra.Command{
			Use:   "remove <email|domain>",
			Short: "Deactivate the entries for an email address or domain",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWhitelist(func(m whitelistManager) error {
					return whitelistRemove(cmd.Context(), cmd.OutOrStdout(), m, args[0])
				})
			},
		},
	)
	return cmd
}

func whitelistList(ctx context.Context, w io.Writer, m whitelistManager) error {
	entries, err := m.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No active entries.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY\tTYPE\tADDED BY\tADDED AT")
	for _, e := range entries {
		entry, kind := e.Email, "email"
		if e.Domain != "" {
			entry, kind = e.Domain, "domain"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry, kind, e.AddedBy, e.AddedAt.Format(time.DateTime))
	}
	return tw.Flush()
}

// whitelistAdd treats an argument containing "@" after its first
// character as an email address and anything else as a domain.
func whitelistAdd(ctx context.Context, w io.Writer, m whitelistManager, arg, addedBy string) error {
	entry := models.WhitelistEntry{AddedBy: addedBy}
	if strings.LastIndex(arg, "@") > 0 {
		entry.Email = arg
	} else {
		entry.Domain = arg
	}

	added, err := m.Add(ctx, entry)
	switch {
	case errors.Is(err, store.ErrDuplicate):
		fmt.Fprintf(w, "%s is already allowed.\n", arg)
		return nil
	case err != nil:
		return err
	}
	if added.Domain != "" {
		fmt.Fprintf(w, "Allowed every address at %s.\n", added.Domain)
	} else {
		fmt.Fprintf(w, "Allowed %s.\n", added.Email)
	}
	return nil
}

func whitelistRemove(ctx context.Context, w io.Writer, m whitelistManager, arg string) error {
	removed, err := m.Remove(ctx, arg)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no active entry for %s", arg)
	}
	fmt.Fprintf(w, "Removed %s.\n", arg)
	return nil
}
