package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/query"
	"github.com/koji0214/summaryoutube/internal/tags"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type searchField int

const (
	searchTitle searchField = iota
	searchTags
	searchSort
)

// searchModel edits a copy of the session query. Nothing is committed until the
// fetch for the new query succeeds.
type searchModel struct {
	focus  searchField
	title  textinput.Model
	tags   *tags.Selection
	cursor int
	key    model.SortKey
	order  model.SortOrder

	submitting bool
	err        error
}

func newSearchModel(q query.Query, vocab *tags.Vocabulary) *searchModel {
	ti := textinput.New()
	ti.Placeholder = "title contains…"
	ti.Prompt = ""
	ti.SetValue(q.Title)
	s := &searchModel{
		title: ti,
		tags:  tags.NewSelection(vocab, q.Tags...),
		key:   q.SortKey,
		order: q.SortOrder,
	}
	if !s.key.Valid() {
		s.key = model.DefaultSortKey
	}
	if !s.order.Valid() {
		s.order = model.DefaultSortOrder
	}
	s.setFocus(searchTitle)
	return s
}

func (s *searchModel) setFocus(f searchField) tea.Cmd {
	s.focus = f
	if f == searchTitle {
		return s.title.Focus()
	}
	s.title.Blur()
	return nil
}

func (s *searchModel) cycleSort(delta int) {
	idx := 0
	for i, k := range model.SortKeys {
		if k == s.key {
			idx = i
		}
	}
	n := len(model.SortKeys)
	s.key = model.SortKeys[(idx+delta+n)%n]
}

func (m *appModel) openSearch() tea.Cmd {
	m.search = newSearchModel(m.sess.Query(), m.sess.Vocabulary())
	m.view = viewSearch
	return textinput.Blink
}

func (m *appModel) updateSearchKey(msg tea.KeyMsg) tea.Cmd {
	s := m.search
	if s == nil {
		m.view = viewList
		return nil
	}
	if s.submitting {
		return nil
	}
	switch msg.String() {
	case "esc":
		m.search = nil
		m.view = viewList
		return nil
	case "enter":
		s.submitting = true
		s.err = nil
		title, filter, key, order := s.title.Value(), s.tags.Tags(), s.key, s.order
		sess := m.sess
		return m.sessionCmd("search", func(ctx context.Context) error {
			return sess.Search(ctx, title, filter, key, order)
		})
	case "ctrl+r":
		s.submitting = true
		return m.sessionCmd("reset", m.sess.ResetQuery)
	case "tab":
		return s.setFocus((s.focus + 1) % 3)
	case "shift+tab":
		return s.setFocus((s.focus + 2) % 3)
	}

	switch s.focus {
	case searchTags:
		all := s.tags.Vocabulary().Tags()
		switch msg.String() {
		case "left", "h":
			if s.cursor > 0 {
				s.cursor--
			}
		case "right", "l":
			if s.cursor < len(all)-1 {
				s.cursor++
			}
		case " ", "x":
			if s.cursor < len(all) {
				s.tags.Toggle(all[s.cursor])
			}
		}
		return nil
	case searchSort:
		switch msg.String() {
		case "left", "h":
			s.cycleSort(-1)
		case "right", "l":
			s.cycleSort(1)
		case " ", "o":
			s.order = s.order.Flip()
		}
		return nil
	}
	var cmd tea.Cmd
	s.title, cmd = s.title.Update(msg)
	return cmd
}

func (m appModel) viewSearch() string {
	s := m.search
	if s == nil {
		return ""
	}
	label := func(f searchField, text string) string {
		if s.focus == f {
			return styleFocused().Render("› " + text)
		}
		return styleMuted().Render("  " + text)
	}

	var b strings.Builder
	b.WriteString(styleTitle().Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(label(searchTitle, "Title"))
	b.WriteString("\n  ")
	b.WriteString(s.title.View())
	b.WriteString("\n\n")

	b.WriteString(label(searchTags, "Tags (all must match)"))
	b.WriteString("\n  ")
	all := s.tags.Vocabulary().Tags()
	if len(all) == 0 {
		b.WriteString(styleMuted().Render("(no tags yet)"))
	} else {
		chips := make([]string, 0, len(all))
		for i, t := range all {
			chip := styleTag(s.tags.Contains(t)).Render(t)
			if s.focus == searchTags && i == s.cursor {
				chip = lipgloss.NewStyle().Underline(true).Render(chip)
			}
			chips = append(chips, chip)
		}
		b.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 20)).Render(strings.Join(chips, " ")))
	}
	b.WriteString("\n\n")

	b.WriteString(label(searchSort, "Sort"))
	b.WriteString("\n  ")
	b.WriteString(fmt.Sprintf("%s %s", s.key.Label(), s.order))
	b.WriteString("\n")

	if s.submitting {
		b.WriteString("\n")
		b.WriteString(styleMuted().Render("Searching…"))
		b.WriteString("\n")
	}
	if s.err != nil {
		b.WriteString("\n")
		b.WriteString(styleError().Render(s.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.footer("tab: next  space: toggle tag / flip order  ←/→: move  enter: search  ctrl+r: reset  esc: cancel"))
	return b.String()
}
