// Package cli implements the pivotframe command-line interface.
//
// The commands read frames from packed strings, share URLs or scene files,
// run the solver, render them and manage the local library. The CLI is
// built using cobra and logs through charmbracelet/log.
//
// # Inputs
//
// Commands taking a frame accept:
//   - demo: the built-in demo frame
//   - a share URL (http:// or https://) carrying a data query value
//   - a .json or .toml scene file
//   - -: a packed string on stdin
//   - any other argument: a file holding a packed string, or the packed
//     string itself when no such file exists
//
// # Configuration
//
// Settings come from the TOML config file (see package config) and are
// overridden by flags. --config selects another file.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// is passed through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pivotframe/pkg/buildinfo"
	"github.com/matzehuels/pivotframe/pkg/cache"
	"github.com/matzehuels/pivotframe/pkg/config"
	"github.com/matzehuels/pivotframe/pkg/pipeline"
	"github.com/matzehuels/pivotframe/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	// ConfigPath is the config file to load; empty means the default path.
	ConfigPath string
	// Verbose enables debug logging. It is bound to --verbose.
	Verbose bool

	// Out receives command output. It defaults to os.Stdout.
	Out io.Writer
	// In is read by commands taking "-" as input. It defaults to os.Stdin.
	In io.Reader
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		Out:    os.Stdout,
		In:     os.Stdin,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Pivotframe simulates frames of pivots held together by shapes",
		Long:         `Pivotframe edits, simulates and renders 2D frames: pivots joined by circles and lines that keep their length, with rigid pivots moving together as groups.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Before loading, so the config debug line shows.
			c.SetLogLevel(levelFor(c.Verbose))
			return c.loadConfig(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.DefaultPath()+")")

	// Register all subcommands
	root.AddCommand(c.encodeCommand())
	root.AddCommand(c.decodeCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.libraryCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and attaches the logger to the command
// context.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	c.Logger.Debug("loaded config", "path", configPathOrDefault(c.ConfigPath))
	return nil
}

func configPathOrDefault(p string) string {
	if p == "" {
		return config.DefaultPath()
	}
	return p
}

// =============================================================================
// Backend Factories
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, nil, c.Logger)
	r.TTL = c.Config.Cache.TTL.Duration
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendMemory:
		return cache.NewMemoryCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.RedisAddr})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		fc, err := cache.NewFileCache(cfg.Dir)
		if err != nil {
			c.Logger.Warn("cache disabled", "dir", cfg.Dir, "error", err)
			return cache.NewNullCache(), nil
		}
		return fc, nil
	}
}

// openLibrary opens the configured library store.
func (c *CLI) openLibrary(ctx context.Context) (storage.Store, error) {
	cfg := c.Config.Storage
	switch cfg.Backend {
	case config.BackendMongo:
		return storage.NewMongoStore(ctx, storage.MongoConfig{URI: cfg.MongoURI, Database: cfg.Database})
	default:
		return storage.NewFileStore(cfg.Dir)
	}
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
