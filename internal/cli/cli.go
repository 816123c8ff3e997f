package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowmap/internal/config"
	"github.com/matzehuels/flowmap/pkg/buildinfo"
	"github.com/matzehuels/flowmap/pkg/cache"
	"github.com/matzehuels/flowmap/pkg/pipeline"
)

const appName = "flowmap"

const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI is the state shared by every command: the logger and the config
// loaded by the root command before a subcommand runs.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	config     *config.Config
}

// New returns a CLI logging to w at level until a config says otherwise.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand builds the command tree. Its pre-run loads the config, picks
// the log level (--verbose beats the config) and puts the logger in the
// command context.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Draw state-to-state migration flows on a map",
		Long: `flowmap draws the migration flows of one US state as curved ribbons on
an Albers USA map, each as wide as the number of people who moved.

It writes SVG, PNG and JSON, prints flow tables, lets you browse
selections in the terminal and serves an interactive page.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default: flowmap.toml, flowmap.yaml or flowmap.yml in the working directory)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.renderCommand(),
		c.flowsCommand(),
		c.exploreCommand(),
		c.serveCommand(),
		c.cacheCommand(),
		c.completionCommand(),
	)
	for _, sub := range root.Commands() {
		registerValueCompletions(sub)
	}
	return root
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.config = cfg

	level := cfg.Level()
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// cfg returns the loaded config; commands run without the root pre-run
// (tests) get the defaults.
func (c *CLI) cfg() *config.Config {
	if c.config == nil {
		c.config = config.Default()
	}
	return c.config
}

// newRunner builds a pipeline runner over the configured render cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	rc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(rc, c.cfg().Keyer(), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, c.cfg().CacheOptions(dir))
}

// =============================================================================
// XDG directories
// =============================================================================

// xdgDir returns $env/flowmap, or ~/<fallback...>/flowmap when env is unset.
func xdgDir(env string, fallback ...string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append(append([]string{home}, fallback...), appName)...), nil
}

// cacheDir holds the render cache (~/.cache/flowmap).
func cacheDir() (string, error) { return xdgDir("XDG_CACHE_HOME", ".cache") }

// stateDir holds the explorer's last selection and file sessions
// (~/.local/state/flowmap).
func stateDir() (string, error) { return xdgDir("XDG_STATE_HOME", ".local", "state") }
