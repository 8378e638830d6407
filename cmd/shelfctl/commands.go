package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/platform/crypto"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type app struct {
	cfg     config.Config
	connect connector
}

func newRootCmd(connect connector) *cobra.Command {
	a := &app{connect: connect}

	root := &cobra.Command{
		Use:           "shelfctl",
		Short:         "Operate a bookshelf deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	root.AddCommand(
		a.tokenCmd(),
		a.resolveCmd(),
		a.overdueCmd(),
		a.statsCmd(),
	)
	return root
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		user string
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, jti, err := crypto.GenerateToken(a.cfg.JWTSecret, user, role, ttl)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "jti=%s expires=%s\n", jti, time.Now().Add(ttl).UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID to put in the sub claim")
	cmd.Flags().StringVar(&role, "role", "USER", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <isbn|volume-id>",
		Short: "Resolve a book into the shared catalog, fetching it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.connect(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer done()

			entry, err := svc.catalog.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), entry)
		},
	}
}

func (a *app) overdueCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List a user's overdue loans and borrows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.connect(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer done()

			items, err := svc.custody.Overdue(cmd.Context(), user)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tPERSON\tDUE\tDAYS\tTITLE")
			for _, it := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", it.Which, it.Person, it.Due.Format(time.DateOnly), it.DaysOverdue, it.Title)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func (a *app) statsCmd() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a user's library statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, done, err := a.connect(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer done()

			stats, err := svc.library.Stats(cmd.Context(), user)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), stats)
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
