package cli

import (
	"time"

	"github.com/koji0214/summaryoutube/internal/devserver"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var (
		addr   string
		driver string
		dsn    string
		delay  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local development backend",
		Long: `Run a local backend that serves the video API on SQLite (default) or Postgres.

Video metadata comes from the YouTube Data API when youtube_api_key (or YOUTUBE_API_KEY)
is set; otherwise placeholder titles are used. Transcription jobs are simulated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := app.cfg.DevServer
			if cmd.Flags().Changed("addr") {
				ds.Addr = addr
			}
			if cmd.Flags().Changed("driver") {
				ds.Driver = driver
			}
			if cmd.Flags().Changed("dsn") {
				ds.DSN = dsn
			}
			if cmd.Flags().Changed("transcribe-delay") {
				ds.TranscribeDelay = delay
			}

			ctx := cmd.Context()
			store, err := devserver.OpenStore(ctx, ds.Driver, ds.DSN)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer store.Close()

			var ex devserver.Extractor = devserver.StaticExtractor{}
			if ds.YouTubeAPIKey != "" {
				yt, err := devserver.NewYouTubeExtractor(ctx, ds.YouTubeAPIKey)
				if err != nil {
					return writeErr(cmd, err)
				}
				ex = yt
			} else {
				app.log.Warn("no YouTube API key; using placeholder metadata")
			}

			srv := devserver.New(store, devserver.Options{
				Extractor:       ex,
				TranscribeDelay: ds.TranscribeDelay,
				Logger:          app.log,
			})
			defer srv.Close()
			if err := srv.ListenAndServe(ctx, ds.Addr); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config: 127.0.0.1:8000)")
	cmd.Flags().StringVar(&driver, "driver", "", "Store driver (sqlite|postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "Store DSN (sqlite file or postgres URL)")
	cmd.Flags().DurationVar(&delay, "transcribe-delay", 0, "Simulated transcription duration")
	return cmd
}
