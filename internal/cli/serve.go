package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vinayprograms/kaal/internal/dashboard"
	"github.com/vinayprograms/kaal/internal/tui"
	"github.com/vinayprograms/kaal/internal/web"
)

func (a *app) tuiCmd() *cobra.Command {
	var noWatch bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Interactive agenda",
		Long: `Interactive agenda of today.

KEYS:
    x, space      Toggle the selected task
    -             Cancel the selected task
    +             Move the selected task to tomorrow
    ←/→, h/l      Previous / next day
    t             Back to today
    r             Reload
    enter         Open the task's note in $EDITOR at its line
    /             Filter
    q, ctrl+c     Quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := tui.Options{Styles: a.styles, Editor: a.cfg.EDITOR}
			if !noWatch {
				w, err := a.vault.Watch()
				if err != nil {
					a.logger.Printf("watch disabled: %v", err)
				} else {
					defer w.Close()
					opts.Watcher = w
				}
			}
			return tui.Run(cmd.Context(), a.service, opts)
		},
	}
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when notes change")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the agenda again whenever notes change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.vault.Watch()
			if err != nil {
				return err
			}
			defer w.Close()

			ctx := cmd.Context()
			if err := a.printAgenda(ctx, "", false); err != nil {
				return err
			}
			for {
				changed, err := w.Next(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, a.styles.Dim.Render("changed: "+strings.Join(changed, ", ")))
				if err := a.printAgenda(ctx, "", false); err != nil {
					return err
				}
			}
		},
	}
}

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the views and task actions as a JSON API",
		Long: `Serve the JSON API.

ROUTES:
    GET  /api/day[/NAME]  /api/week[/NAME]  /api/month[/NAME]
    GET  /api/agenda?at=YYYY-MM-DD
    GET  /api/task?path=PATH&line=LINE
    POST /api/tasks/status      {"path", "line", "status"}
    POST /api/tasks/toggle      {"path", "line"}
    POST /api/tasks/reschedule  {"path", "line", "date"}
    POST /api/tasks/id          {"path", "line"}

Lines are 0-based.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Web.Addr
			}
			fmt.Fprintf(a.out, "Serving %s on http://%s\n", a.cfg.Vault, addr)
			return web.NewServer(a.service).Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func (a *app) mcpCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashboard.NewMCPServer(a.service, opts.version).Run(cmd.Context())
		},
	}
}
