package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/koji0214/summaryoutube/internal/api"
	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/poll"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"golang.org/x/sync/errgroup"
)

const detailChromeLines = 4

// detailModel is one opened video. Its context is cancelled when the view closes, which
// aborts any request still in flight; the poll machine is stopped so late replies are
// ignored.
type detailModel struct {
	id     int64
	seq    int
	ctx    context.Context
	cancel context.CancelFunc

	machine poll.Machine
	loading bool
	// notFound is set when the video is gone, on first load or while polling.
	notFound bool
	err      error

	video         model.Video
	transcript    string
	transcriptErr error

	vp viewport.Model
}

func (d *detailModel) resize(width, height int) {
	h := height - detailChromeLines
	if h < 3 {
		h = 3
	}
	d.vp.Width = width
	d.vp.Height = h
	d.vp.SetContent(d.body(width))
}

func (d *detailModel) transcriptText() string {
	if t := strings.TrimSpace(d.video.Transcript); t != "" {
		return t
	}
	return strings.TrimSpace(d.transcript)
}

func (d *detailModel) body(width int) string {
	if d.loading && d.video.ID == 0 {
		return styleMuted().Render("Loading…")
	}
	v := d.video
	var b strings.Builder

	meta := []string{fmt.Sprintf("#%d", v.ID)}
	if ch := strings.TrimSpace(v.ChannelName); ch != "" {
		meta = append(meta, ch)
	}
	if v.CreatedAt != nil && !v.CreatedAt.IsZero() {
		meta = append(meta, "added "+v.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString(styleMuted().Render(strings.Join(meta, "  ")))
	b.WriteString("\n")
	b.WriteString(styleMuted().Render(v.URL))
	b.WriteString("\n")
	if id, ok := model.ExtractVideoID(v.URL); ok {
		b.WriteString(styleMuted().Render("embed: " + model.EmbedURL(id)))
		b.WriteString("\n")
	}

	if len(v.Tags) > 0 {
		chips := make([]string, 0, len(v.Tags))
		for _, t := range v.Tags {
			chips = append(chips, styleTag(false).Render(t))
		}
		b.WriteString("\n")
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(chips, " ")))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleTitle().Render("Memo"))
	b.WriteString("\n")
	if memo := renderMarkdown(v.Memo, width-2); memo != "" {
		b.WriteString(memo)
	} else {
		b.WriteString(styleMuted().Render("(no memo)"))
	}
	b.WriteString("\n\n")

	b.WriteString(styleTitle().Render("Transcript"))
	b.WriteString("\n")
	switch {
	case v.Status.InProgress():
		b.WriteString(styleMuted().Render("Transcription in progress…"))
	case d.transcriptText() != "":
		b.WriteString(renderMarkdown(d.transcriptText(), width-2))
	case v.Status == model.StatusFailed:
		b.WriteString(styleError().Render("Transcription failed."))
	default:
		b.WriteString(styleMuted().Render("No transcript available."))
	}
	return b.String()
}

func (m *appModel) openDetail(id int64) tea.Cmd {
	m.closeDetail()
	m.detailSeq++
	ctx, cancel := context.WithCancel(m.ctx)
	d := &detailModel{
		id:      id,
		seq:     m.detailSeq,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
		vp:      viewport.New(m.width, 1),
	}
	if v, ok := m.sess.Video(id); ok {
		d.video = v
	}
	d.resize(m.width, m.height)
	m.detail = d
	m.view = viewDetail
	return loadDetailCmd(ctx, m.fetch, d.seq, id)
}

// closeDetail tears down the open detail view. Safe to call when none is open.
func (m *appModel) closeDetail() {
	if m.detail == nil {
		return
	}
	m.detail.machine.Stop()
	m.detail.cancel()
	m.detail = nil
}

// liveDetail returns the open detail view if msgSeq belongs to it.
func (m *appModel) liveDetail(msgSeq int) *detailModel {
	if m.detail == nil || m.detail.seq != msgSeq || m.detail.ctx.Err() != nil {
		return nil
	}
	return m.detail
}

// loadDetailCmd fetches the video and its transcript concurrently. A transcript error
// does not fail the load.
func loadDetailCmd(ctx context.Context, f Fetcher, seq int, id int64) tea.Cmd {
	return func() tea.Msg {
		out := detailLoadedMsg{seq: seq}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			v, err := f.GetVideo(gctx, id)
			if err != nil {
				return err
			}
			out.video = v
			return nil
		})
		g.Go(func() error {
			out.transcript, out.transcriptErr = f.GetTranscript(gctx, id)
			return nil
		})
		out.err = g.Wait()
		return out
	}
}

func pollFetchCmd(ctx context.Context, f Fetcher, seq int, id int64) tea.Cmd {
	return func() tea.Msg {
		v, err := f.GetVideo(ctx, id)
		return pollResultMsg{seq: seq, video: v, err: err}
	}
}

func transcriptCmd(ctx context.Context, f Fetcher, seq int, id int64) tea.Cmd {
	return func() tea.Msg {
		text, err := f.GetTranscript(ctx, id)
		return transcriptMsg{seq: seq, text: text, err: err}
	}
}

func (m *appModel) schedulePoll(d *detailModel) tea.Cmd {
	seq := d.seq
	return tea.Tick(m.pollInterval, func(time.Time) tea.Msg { return pollTickMsg{seq: seq} })
}

func (m *appModel) updateDetailMsg(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case detailLoadedMsg:
		d := m.liveDetail(msg.seq)
		if d == nil {
			return nil
		}
		d.loading = false
		if msg.err != nil {
			d.machine.Observe(model.Video{}, msg.err)
			d.setErr(msg.err)
			d.resize(m.width, m.height)
			return nil
		}
		d.video = msg.video
		d.transcript = msg.transcript
		d.transcriptErr = msg.transcriptErr
		d.resize(m.width, m.height)
		if d.machine.Begin(msg.video) == poll.Watching {
			return m.schedulePoll(d)
		}
		return nil

	case pollTickMsg:
		d := m.liveDetail(msg.seq)
		if d == nil || !d.machine.Watching() {
			return nil
		}
		return pollFetchCmd(d.ctx, m.fetch, d.seq, d.id)

	case pollResultMsg:
		d := m.liveDetail(msg.seq)
		if d == nil {
			return nil
		}
		st := d.machine.Observe(msg.video, msg.err)
		if msg.err != nil {
			m.log.Warn("poll failed", "id", d.id, "polls", d.machine.Polls(), "err", msg.err)
			d.setErr(msg.err)
			d.resize(m.width, m.height)
			return nil
		}
		d.video = msg.video
		d.resize(m.width, m.height)
		if st == poll.Watching {
			return m.schedulePoll(d)
		}
		m.log.Debug("poll finished", "id", d.id, "status", d.video.Status, "polls", d.machine.Polls())
		// The job finished; the list badge is stale now.
		cmds := []tea.Cmd{m.sessionCmd("refresh", m.sess.Refresh)}
		if d.video.Status == model.StatusCompleted && d.transcriptText() == "" {
			cmds = append(cmds, transcriptCmd(d.ctx, m.fetch, d.seq, d.id))
		}
		return tea.Batch(cmds...)

	case transcriptMsg:
		d := m.liveDetail(msg.seq)
		if d == nil {
			return nil
		}
		d.transcript = msg.text
		d.transcriptErr = msg.err
		d.resize(m.width, m.height)
	}
	return nil
}

func (d *detailModel) setErr(err error) {
	if errors.Is(err, api.ErrNotFound) {
		d.notFound = true
		return
	}
	d.err = err
}

func (m *appModel) updateDetailKey(msg tea.KeyMsg) tea.Cmd {
	d := m.detail
	if d == nil {
		m.view = viewList
		return nil
	}
	switch msg.String() {
	case "esc", "q", "backspace":
		m.closeDetail()
		m.view = viewList
		return nil
	case "r":
		return m.openDetail(d.id)
	case "e":
		if d.loading || d.notFound || d.video.ID == 0 {
			return nil
		}
		return m.openEditForm(d.video, viewDetail)
	case "d":
		if d.notFound || d.video.ID == 0 {
			return nil
		}
		m.askDelete(d.video.ID, d.video.Title)
		return nil
	}
	var cmd tea.Cmd
	d.vp, cmd = d.vp.Update(msg)
	return cmd
}

func (m appModel) viewDetail() string {
	d := m.detail
	if d == nil {
		return ""
	}
	title := strings.TrimSpace(d.video.Title)
	if title == "" {
		title = fmt.Sprintf("Video %d", d.id)
	}
	head := styleTitle().Render(title)
	if s := d.video.Status; s != "" {
		head += "  " + lipgloss.NewStyle().Foreground(statusColor(string(s))).Render(string(s))
	}
	head = xansi.Truncate(head, m.width, "…")

	var status string
	switch {
	case d.notFound:
		status = styleError().Render("Video not found. It may have been deleted.")
	case d.err != nil && d.machine.Polls() > 0:
		status = styleError().Render("Stopped following the job: " + d.err.Error())
	case d.err != nil:
		status = styleError().Render("Could not load video: " + d.err.Error())
	case d.machine.Watching():
		status = styleMuted().Render(fmt.Sprintf("Following transcription, checking every %s", m.pollInterval))
	case d.loading:
		status = styleMuted().Render("Loading…")
	}
	status = xansi.Truncate(status, m.width, "…")

	body := d.vp.View()
	if d.notFound {
		body = ""
	}
	return strings.Join([]string{head, status, body, m.footer("esc: back  e: edit  d: delete  r: reload  ↑/↓: scroll")}, "\n")
}
