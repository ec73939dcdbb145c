package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/koji0214/summaryoutube/internal/api"
	"github.com/koji0214/summaryoutube/internal/config"
	"github.com/koji0214/summaryoutube/internal/format"
	"github.com/koji0214/summaryoutube/internal/session"
	"github.com/koji0214/summaryoutube/internal/tags"
	"github.com/koji0214/summaryoutube/internal/tui"

	"github.com/spf13/cobra"
)

// annotationNoConfig marks commands that must run without a loadable config file.
const annotationNoConfig = "summaryoutube/no-config"

type App struct {
	Server     string
	ConfigPath string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg     *config.Config
	cfgPath string
	log     *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "summaryoutube",
		Short:        "Video bookmarks with transcription tracking (CLI + TUI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  summaryoutube

  # Scriptable commands
  summaryoutube videos list --tag music --sort title --order desc
  summaryoutube videos add https://youtu.be/dQw4w9WgXcQ --tag music --transcribe --watch

  # Direct video lookup (shortcut for: summaryoutube videos show <id>)
  summaryoutube 42

  # Local backend for development
  summaryoutube serve
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.loadConfig(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Server, "server", envOr(config.EnvPrefix+"SERVER", ""), "Backend base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Path to config file (default: $SUMMARYOUTUBE_CONFIG or ~/.config/summaryoutube/config.yaml)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr(config.EnvPrefix+"FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (debug|info|warn|error; overrides config)")

	cmd.AddCommand(newVideosCmd(app))
	cmd.AddCommand(newTagsCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newConfigCmd(app))

	return cmd
}

// loadConfig layers defaults, file, environment and flags, then builds the logger.
func (app *App) loadConfig(cmd *cobra.Command) error {
	if cmd.Annotations[annotationNoConfig] == "true" {
		app.log = newLogger(cmd.ErrOrStderr(), "warn", "text")
		return nil
	}
	cfg, used, err := config.Load(app.ConfigPath, os.Getenv)
	if err != nil {
		return err
	}
	if app.Server != "" {
		cfg.Server = app.Server
	}
	if app.LogLevel != "" {
		cfg.Log.Level = app.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch app.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown format: %s (want json or text)", app.Format)
	}
	app.cfg = cfg
	app.cfgPath = used
	app.log = newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	return nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (app *App) client() (*api.Client, error) {
	return api.New(api.Options{
		BaseURL: app.cfg.Server,
		Timeout: app.cfg.RequestTimeout,
		Retry:   app.cfg.Retry,
		Logger:  app.log,
	})
}

func (app *App) session(c *api.Client) *session.Session {
	policy := tags.KeepPending
	if !app.cfg.Tags.KeepUnsaved {
		policy = tags.DropPending
	}
	return session.New(c, session.WithLogger(app.log), session.WithTagPolicy(policy))
}

func runTUI(cmd *cobra.Command, app *App) error {
	// The alt screen owns the terminal; logs go to log.file or nowhere.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if p := strings.TrimSpace(app.cfg.Log.File); p != "" {
		f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return writeErr(cmd, fmt.Errorf("open log file: %w", err))
		}
		defer f.Close()
		logger = newLogger(f, app.cfg.Log.Level, app.cfg.Log.Format)
	}
	app.log = logger

	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	err = tui.Run(cmd.Context(), tui.Options{
		Session:      app.session(c),
		Fetcher:      c.NoRetry(),
		PollInterval: app.cfg.PollInterval,
		Logger:       logger,
	})
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
