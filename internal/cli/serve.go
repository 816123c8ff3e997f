package cli

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/config"
	"github.com/matzehuels/flowmap/internal/server"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/session"
)

// serveCommand creates the serve command, which hosts the interactive page.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts     inputFlags
		addr     string
		watch    bool
		sessions string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive flow map",
		Long: `Serve the interactive flow map over HTTP.

Every browser gets its own selection, kept in a session cookie. Changing a
control re-renders the map; flows that appear fade in.

Routes:
  GET  /               page with the location, direction and display controls
  GET  /scene.svg      the session's scene (?width=W)
  POST /selection      change location, direction or display
  GET  /api/locations  locations with their totals
  GET  /api/flows      selected flows with geometry and tooltip numbers
  GET  /healthz        liveness
  GET  /readyz         503 until the dataset is loaded
  GET  /metrics        Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			popts, cfg, err := c.options(cmd, &opts)
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			if fs.Changed("addr") {
				cfg.Server.Addr = addr
			}
			if fs.Changed("watch") {
				cfg.Server.Watch = watch
			}
			if fs.Changed("sessions") {
				cfg.Server.Sessions = sessions
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			return c.runServe(cmd.Context(), popts, cfg, opts.noCache)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the dataset when an input file changes")
	cmd.Flags().StringVar(&sessions, "sessions", "", "session store: memory, file, redis")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, popts pipeline.Options, cfg *config.Config, noCache bool) error {
	metrics := observability.NewMetrics()
	observability.Install(observability.All(metrics))
	defer observability.Reset()

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	state, err := stateDir()
	if err != nil {
		return err
	}
	store, err := openSessionStore(ctx, cfg, state)
	if err != nil {
		return err
	}
	defer store.Close()

	srv := server.New(server.Options{
		Addr:            cfg.Server.Addr,
		Pipeline:        popts,
		SessionTTL:      cfg.Server.SessionTTL,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Watch:           cfg.Server.Watch,
		Metrics:         metrics,
		Logger:          c.Logger,
	}, runner, store)

	printInfo("Serving on %s", StyleLink.Render(displayAddr(cfg.Server.Addr)))
	printKeyValue("data", popts.DataPath)
	printKeyValue("topology", popts.TopologyPath)
	printKeyValue("sessions", cfg.Server.Sessions)
	printKeyValue("watch", strconv.FormatBool(cfg.Server.Watch))
	return srv.Run(ctx)
}

// openSessionStore opens the configured store. File sessions live next to
// the explorer's state under dir.
func openSessionStore(ctx context.Context, cfg *config.Config, dir string) (session.Store, error) {
	switch cfg.Server.Sessions {
	case config.SessionsRedis:
		return session.NewRedisStore(ctx, cfg.Cache.RedisAddr)
	case config.SessionsFile:
		return session.NewFileStore(filepath.Join(dir, "sessions"))
	}
	return session.NewMemoryStore(), nil
}

// displayAddr turns a listen address into a URL to open.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		addr = "localhost" + addr
	}
	return "http://" + addr
}
