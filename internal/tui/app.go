package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/koji0214/summaryoutube/internal/poll"
	"github.com/koji0214/summaryoutube/internal/session"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	headerLines = 2
	footerLines = 2
	flashFor    = 3 * time.Second
)

type appModel struct {
	ctx          context.Context
	sess         *session.Session
	fetch        Fetcher
	pollInterval time.Duration
	log          *slog.Logger

	width  int
	height int
	view   view

	videos  list.Model
	loading bool
	listErr error

	flash    string
	flashSeq int

	detail    *detailModel
	detailSeq int
	form      *formModel
	search    *searchModel
	confirm   *confirmDelete
}

func newAppModel(ctx context.Context, opts Options) appModel {
	if ctx == nil {
		ctx = context.Background()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = poll.DefaultInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger()
	}
	m := appModel{
		ctx:          ctx,
		sess:         opts.Session,
		log:          logger,
		fetch:        opts.Fetcher,
		pollInterval: interval,
		width:        80,
		height:       24,
		view:         viewList,
		loading:      true,
	}
	m.videos = newVideoList(m.width, m.listHeight())
	return m
}

func (m appModel) Init() tea.Cmd {
	return m.sessionCmd("load", m.sess.Load)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case listLoadedMsg:
		return m, (&m).handleListLoaded(msg)

	case mutationDoneMsg:
		return m, (&m).handleMutationDone(msg)

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case detailLoadedMsg, pollTickMsg, pollResultMsg, transcriptMsg:
		return m, (&m).updateDetailMsg(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			(&m).closeDetail()
			return m, tea.Quit
		}
		if m.confirm != nil {
			return m, (&m).updateConfirmKey(msg)
		}
		switch m.view {
		case viewDetail:
			return m, (&m).updateDetailKey(msg)
		case viewForm:
			return m, (&m).updateFormKey(msg)
		case viewSearch:
			return m, (&m).updateSearchKey(msg)
		default:
			return (&m).updateListKey(msg)
		}
	}

	// Cursor blinks and other widget-internal messages.
	switch m.view {
	case viewForm:
		if m.form != nil {
			return m, m.form.updateInputs(msg)
		}
	case viewSearch:
		if m.search != nil {
			var cmd tea.Cmd
			m.search.title, cmd = m.search.title.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m appModel) View() string {
	var body string
	switch m.view {
	case viewDetail:
		body = m.viewDetail()
	case viewForm:
		body = m.viewForm()
	case viewSearch:
		body = m.viewSearch()
	default:
		body = m.viewList()
	}
	if m.confirm != nil {
		modal := renderConfirmModal(
			m.width,
			"Delete video",
			fmt.Sprintf("Delete %q? This cannot be undone.", m.confirm.title),
			"Delete",
			"Cancel",
			m.confirm.focus,
		)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}
	return body
}

func (m *appModel) listHeight() int {
	h := m.height - headerLines - footerLines
	if h < 3 {
		h = 3
	}
	return h
}

func (m *appModel) resize() {
	m.videos.SetSize(m.width, m.listHeight())
	if m.detail != nil {
		m.detail.resize(m.width, m.height)
	}
	if m.form != nil {
		m.form.resize(m.width)
	}
}

// sessionCmd runs a session fetch off the UI goroutine.
func (m *appModel) sessionCmd(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return listLoadedMsg{op: op, err: fn(ctx)}
	}
}

func (m *appModel) setFlash(text string) tea.Cmd {
	m.flashSeq++
	seq := m.flashSeq
	m.flash = text
	return tea.Tick(flashFor, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m *appModel) handleListLoaded(msg listLoadedMsg) tea.Cmd {
	m.loading = false
	switch msg.op {
	case "search", "reset":
		if m.search != nil {
			m.search.submitting = false
			if msg.err != nil {
				m.search.err = msg.err
				return nil
			}
			m.search = nil
			if m.view == viewSearch {
				m.view = viewList
			}
		}
		if msg.err != nil {
			// The query was not committed; the list still shows the old results.
			return m.setFlash("search failed: " + msg.err.Error())
		}
	default:
		m.listErr = msg.err
	}
	if msg.err == nil {
		m.listErr = nil
	}
	m.syncItems()
	return nil
}

func (m *appModel) handleMutationDone(msg mutationDoneMsg) tea.Cmd {
	var reloadErr *session.ReloadError
	ok := msg.err == nil || errors.As(msg.err, &reloadErr)
	m.syncItems()

	switch msg.op {
	case "create", "update":
		if m.form == nil {
			return nil
		}
		if !ok {
			m.form.submitting = false
			m.form.err = msg.err
			return nil
		}
		returnTo := m.form.returnTo
		m.form = nil
		m.view = returnTo
		var cmds []tea.Cmd
		if msg.op == "create" && msg.video.Status.InProgress() {
			// Follow the new transcription job right away.
			cmds = append(cmds, m.openDetail(msg.video.ID))
		} else if m.view == viewDetail && m.detail != nil && m.detail.id == msg.id {
			cmds = append(cmds, m.openDetail(msg.id))
		}
		text := "Saved."
		if reloadErr != nil {
			text = "Saved, but the list could not be refreshed: " + reloadErr.Err.Error()
		}
		cmds = append(cmds, m.setFlash(text))
		return tea.Batch(cmds...)

	case "delete":
		if !ok {
			return m.setFlash("delete failed: " + msg.err.Error())
		}
		if m.detail != nil && m.detail.id == msg.id {
			m.closeDetail()
			m.view = viewList
		}
		if reloadErr != nil {
			return m.setFlash("Deleted, but the list could not be refreshed: " + reloadErr.Err.Error())
		}
		return m.setFlash("Deleted.")
	}
	return nil
}

func (m *appModel) updateListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.closeDetail()
		return *m, tea.Quit
	case "enter":
		if v, ok := m.selectedVideo(); ok {
			return *m, m.openDetail(v.ID)
		}
		return *m, nil
	case "a":
		return *m, m.openCreateForm()
	case "e":
		if v, ok := m.selectedVideo(); ok {
			return *m, m.openEditForm(v, viewList)
		}
		return *m, nil
	case "d":
		if v, ok := m.selectedVideo(); ok {
			m.askDelete(v.ID, v.Title)
		}
		return *m, nil
	case "/":
		return *m, m.openSearch()
	case "r":
		m.loading = true
		return *m, m.sessionCmd("refresh", m.sess.Refresh)
	case "R":
		m.loading = true
		return *m, m.sessionCmd("reset", m.sess.ResetQuery)
	}
	var cmd tea.Cmd
	m.videos, cmd = m.videos.Update(msg)
	return *m, cmd
}

func (m *appModel) askDelete(id int64, title string) {
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("video %d", id)
	}
	m.confirm = &confirmDelete{id: id, title: title, focus: confirmFocusCancel}
}

func (m *appModel) updateConfirmKey(msg tea.KeyMsg) tea.Cmd {
	c := m.confirm
	switch msg.String() {
	case "esc", "n", "q":
		m.confirm = nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		c.focus = c.focus.toggle()
	case "y":
		return m.deleteCmd(c.id)
	case "enter":
		if c.focus == confirmFocusConfirm {
			return m.deleteCmd(c.id)
		}
		m.confirm = nil
	}
	return nil
}

func (m *appModel) deleteCmd(id int64) tea.Cmd {
	m.confirm = nil
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		return mutationDoneMsg{op: "delete", id: id, err: sess.Delete(ctx, id)}
	}
}

func (m appModel) viewList() string {
	head := styleTitle().Render("summaryoutube")
	if q := m.sess.Query(); !q.IsDefault() {
		head += "  " + styleMuted().Render(q.String())
	}
	head = xansi.Truncate(head, m.width, "…")

	var body string
	switch {
	case !m.sess.Loaded() && m.loading:
		body = styleMuted().Render("Loading videos…")
	case !m.sess.Loaded() && m.listErr != nil:
		body = styleError().Render("Could not load videos: " + m.listErr.Error())
	case len(m.videos.Items()) == 0:
		if m.sess.Query().IsDefault() {
			body = styleMuted().Render("No videos yet. Press a to add one.")
		} else {
			body = styleMuted().Render("No videos match the current search. Press R to reset.")
		}
	default:
		body = m.videos.View()
	}
	body = lipgloss.NewStyle().Height(m.listHeight()).Render(body)

	return strings.Join([]string{head, "", body, m.footer("enter: open  a: add  e: edit  d: delete  /: search  r: refresh  R: reset  q: quit")}, "\n")
}

// footer shows the flash message when there is one, the list error otherwise, then help.
func (m appModel) footer(help string) string {
	status := ""
	switch {
	case m.flash != "":
		status = m.flash
	case m.listErr != nil && m.sess.Loaded():
		status = styleError().Render("refresh failed: " + m.listErr.Error())
	case m.loading:
		status = styleMuted().Render("Loading…")
	}
	status = xansi.Truncate(status, m.width, "…")
	return status + "\n" + xansi.Truncate(styleMuted().Render(help), m.width, "…")
}
