// Package tui is the interactive terminal UI: a video list with search, a detail view
// that follows transcription jobs, and create/edit forms.
package tui

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// Fetcher reads single videos for the detail view. Polling uses it directly, outside
// the session, so a poll never touches the list state.
type Fetcher interface {
	GetVideo(ctx context.Context, id int64) (model.Video, error)
	GetTranscript(ctx context.Context, id int64) (string, error)
}

type Options struct {
	Session      *session.Session
	Fetcher      Fetcher
	PollInterval time.Duration
	Logger       *slog.Logger
}

func Run(ctx context.Context, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference()

	m := newAppModel(ctx, opts)
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if fm, ok := final.(appModel); ok {
		fm.closeDetail()
	}
	if err != nil && ctx.Err() != nil {
		// Interrupted; not a failure.
		return nil
	}
	return err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
