// Package cli is the kaal command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vinayprograms/kaal/internal/calendar"
	"github.com/vinayprograms/kaal/internal/config"
	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/git"
	"github.com/vinayprograms/kaal/internal/rewrite"
	"github.com/vinayprograms/kaal/internal/store"
	"github.com/vinayprograms/kaal/internal/tui"
)

// app is what every command runs against once the config is loaded.
type app struct {
	cfg     *config.Config
	vault   *store.Vault
	service *dashboard.Service
	styles  tui.Styles
	logger  *log.Logger
	out     io.Writer
}

type rootOptions struct {
	configPath string
	vault      string
	timezone   string
	verbose    bool
	version    string
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{version: version}
	a := &app{}

	root := &cobra.Command{
		Use:   "kaal",
		Short: "kaal - a temporal index over markdown tasks",
		Long: `kaal indexes the checkbox tasks of a markdown vault by their due,
scheduled and completion dates. It shows what falls in a day, week or
month, builds the daily agenda, and rewrites task lines in place.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch cmd.Name() {
			case "help", "version", "completion", cobra.ShellCompRequestCmd:
				return nil
			}
			return a.setup(cmd, opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.printAgenda(cmd.Context(), "", false)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/kaal/config.toml)")
	root.PersistentFlags().StringVar(&opts.vault, "vault", "", "vault directory, overrides the config")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", "", "time zone dates are read in, overrides the config")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log skipped files and rewrite aborts")

	root.AddCommand(
		a.viewCmd("day", "Tasks due, scheduled or completed on a day (YYYY-MM-DD)"),
		a.viewCmd("week", "Tasks of a Monday-to-Sunday week (YYYY-Www)"),
		a.viewCmd("month", "Tasks of a calendar month (YYYY-Month)"),
		a.agendaCmd(),
		a.statusCmd("done", "Mark tasks done", 'x'),
		a.statusCmd("undo", "Reopen tasks", ' '),
		a.statusCmd("cancel", "Cancel tasks", '-'),
		a.toggleCmd(),
		a.rescheduleCmd(),
		a.idCmd(),
		a.showCmd(),
		a.watchCmd(),
		a.tuiCmd(),
		a.serveCmd(),
		a.mcpCmd(opts),
		versionCmd(opts),
	)
	return root
}

// Execute runs the command tree.
func Execute(ctx context.Context, version string) error {
	if err := NewRootCmd(version).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func versionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "kaal", opts.version)
		},
	}
}

func (a *app) setup(cmd *cobra.Command, opts *rootOptions) error {
	a.out = cmd.OutOrStdout()
	a.logger = log.New(io.Discard, "kaal: ", 0)
	if opts.verbose {
		a.logger = log.New(cmd.ErrOrStderr(), "kaal: ", log.LstdFlags)
	}

	var err error
	if opts.configPath != "" {
		a.cfg, err = config.LoadFile(opts.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := a.cfg.Override(opts.vault, opts.timezone); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.vault, err = store.Open(a.cfg.Vault, calendar.New(a.cfg.Location()), a.logger)
	if err != nil {
		return err
	}

	rwOpts := rewrite.Options{Logger: a.logger, Strict: a.cfg.Rewrite.Strict}
	if a.cfg.Git.AutoCommit {
		committer := git.NewCommitter(a.cfg.Git.Push)
		rwOpts.OnWrite = func(ctx context.Context, p string) error {
			file, err := a.vault.Abs(p)
			if err != nil {
				return err
			}
			return committer.Commit(ctx, file, "kaal: update "+filepath.ToSlash(p))
		}
	}
	rw := rewrite.New(a.vault, rwOpts)

	a.service = dashboard.New(a.vault, rw, dashboard.Folders{
		Daily:   a.cfg.Folders.Daily,
		Weekly:  a.cfg.Folders.Weekly,
		Monthly: a.cfg.Folders.Monthly,
	}, a.logger)
	a.styles = tui.NewStyles(a.cfg.Colors)
	return nil
}
