// Package poll follows a video's transcription job until it completes or fails.
//
// Machine is the pure state machine. Watcher drives it from a goroutine for the CLI;
// the TUI drives the same Machine with tea.Tick.
package poll

import (
	"github.com/koji0214/summaryoutube/internal/model"
)

type State int

const (
	Idle State = iota
	Watching
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Watching:
		return "watching"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Machine tracks one job. The zero value is Idle and ready to use.
//
// Responses observed after the machine stopped are ignored, so a late reply for a
// closed view cannot resurrect it.
type Machine struct {
	state State
	video model.Video
	err   error
	polls int
}

// Begin installs the first fetched state. Only in-progress jobs are watched.
func (m *Machine) Begin(v model.Video) State {
	if m.state != Idle {
		return m.state
	}
	m.video = v
	m.polls = 1
	if v.Status.InProgress() {
		m.state = Watching
	} else {
		m.state = Stopped
	}
	return m.state
}

// Observe applies a poll result. Errors are terminal and recorded; they are not
// retried. From Idle an error also stops the machine, which covers a failed first fetch.
func (m *Machine) Observe(v model.Video, err error) State {
	if m.state == Stopped {
		return m.state
	}
	if err != nil {
		m.err = err
		m.state = Stopped
		return m.state
	}
	if m.state == Idle {
		return m.Begin(v)
	}
	m.video = v
	m.polls++
	if v.Status.Terminal() {
		m.state = Stopped
	}
	return m.state
}

// Stop tears the machine down. Further observations are ignored.
func (m *Machine) Stop() {
	m.state = Stopped
}

func (m *Machine) State() State { return m.state }

// Watching reports whether another fetch should be scheduled.
func (m *Machine) Watching() bool { return m.state == Watching }

func (m *Machine) Video() model.Video { return m.video }

func (m *Machine) Err() error { return m.err }

// Polls counts applied responses, including the first fetch.
func (m *Machine) Polls() int { return m.polls }
