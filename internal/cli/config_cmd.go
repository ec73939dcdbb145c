package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/koji0214/summaryoutube/internal/config"
	"github.com/koji0214/summaryoutube/internal/format"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration (secrets redacted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg.Redacted()
			return writeOut(cmd, app, format.Envelope{
				Data: cfg,
				Meta: map[string]any{"path": app.cfgPath},
				Text: func(w io.Writer) error {
					b, err := yaml.Marshal(cfg)
					if err != nil {
						return err
					}
					_, err = w.Write(b)
					return err
				},
			})
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := config.Resolve(app.ConfigPath, os.Getenv)
			if path == "" {
				return writeErr(cmd, errors.New("no config path: pass --config or set "+config.EnvConfig))
			}
			if _, err := os.Stat(path); err == nil && !force {
				return writeErr(cmd, fmt.Errorf("config file already exists: %s (use --force to overwrite)", path))
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return writeErr(cmd, err)
			}
			cfg := config.DefaultConfig()
			if app.Server != "" {
				cfg.Server = app.Server
			}
			if err := cfg.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.SaveToFile(path); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{
				Data: map[string]any{"path": path},
				Text: func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "wrote %s\n", path)
					return err
				},
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
