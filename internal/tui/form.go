package tui

import (
	"fmt"
	"strings"

	"github.com/koji0214/summaryoutube/internal/draft"
	"github.com/koji0214/summaryoutube/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField int

const (
	fieldURL formField = iota
	fieldTags
	fieldMemo
	fieldTranscribe
	fieldSubmit
)

// formModel edits one draft. Inputs are copied into the draft on submit; tags go to the
// draft's selection immediately so the shared vocabulary sees them.
type formModel struct {
	draft    *draft.Draft
	returnTo view
	focus    formField

	url      textinput.Model
	tagInput textinput.Model
	memo     textarea.Model

	// pick indexes the tags offered by the picker.
	pick       int
	transcribe bool

	submitting bool
	err        error
}

func newFormModel(d *draft.Draft, returnTo view, width int) *formModel {
	url := textinput.New()
	url.Placeholder = "https://www.youtube.com/watch?v=…"
	url.Prompt = ""
	url.SetValue(d.URL)

	tagInput := textinput.New()
	tagInput.Placeholder = "type a new tag, or ↑/↓ to pick one"
	tagInput.Prompt = ""

	memo := textarea.New()
	memo.Placeholder = "Notes (markdown)"
	memo.ShowLineNumbers = false
	memo.SetHeight(5)
	memo.SetValue(d.Memo)

	f := &formModel{
		draft:      d,
		returnTo:   returnTo,
		url:        url,
		tagInput:   tagInput,
		memo:       memo,
		transcribe: d.TranscriptionOption != "",
	}
	f.resize(width)
	f.setFocus(fieldURL)
	return f
}

func (f *formModel) resize(width int) {
	w := width - 4
	if w < 20 {
		w = 20
	}
	f.url.Width = w
	f.tagInput.Width = w
	f.memo.SetWidth(w)
}

func (f *formModel) fields() []formField {
	if f.draft.Mode == draft.ModeCreate {
		return []formField{fieldURL, fieldTags, fieldMemo, fieldTranscribe, fieldSubmit}
	}
	return []formField{fieldURL, fieldTags, fieldMemo, fieldSubmit}
}

func (f *formModel) setFocus(field formField) tea.Cmd {
	f.focus = field
	f.url.Blur()
	f.tagInput.Blur()
	f.memo.Blur()
	switch field {
	case fieldURL:
		return f.url.Focus()
	case fieldTags:
		return f.tagInput.Focus()
	case fieldMemo:
		return f.memo.Focus()
	}
	return nil
}

func (f *formModel) moveFocus(delta int) tea.Cmd {
	fields := f.fields()
	idx := 0
	for i, x := range fields {
		if x == f.focus {
			idx = i
		}
	}
	idx = (idx + delta + len(fields)) % len(fields)
	return f.setFocus(fields[idx])
}

// syncDraft copies the text inputs into the draft.
func (f *formModel) syncDraft() {
	f.draft.URL = f.url.Value()
	f.draft.Memo = f.memo.Value()
	f.draft.TranscriptionOption = ""
	if f.transcribe && f.draft.Mode == draft.ModeCreate {
		f.draft.TranscriptionOption = model.TranscriptionStandard
	}
}

func (f *formModel) pickable() []string {
	return f.draft.Tags.Available()
}

func (f *formModel) clampPick() {
	n := len(f.pickable())
	switch {
	case n == 0:
		f.pick = 0
	case f.pick >= n:
		f.pick = n - 1
	case f.pick < 0:
		f.pick = 0
	}
}

// reset clears the draft and the inputs.
func (f *formModel) reset() {
	f.draft.Reset()
	f.url.SetValue("")
	f.tagInput.SetValue("")
	f.memo.SetValue("")
	f.transcribe = false
	f.pick = 0
	f.err = nil
}

func (f *formModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focus {
	case fieldURL:
		f.url, cmd = f.url.Update(msg)
	case fieldTags:
		f.tagInput, cmd = f.tagInput.Update(msg)
	case fieldMemo:
		f.memo, cmd = f.memo.Update(msg)
	}
	return cmd
}

func (m *appModel) openCreateForm() tea.Cmd {
	m.form = newFormModel(m.sess.NewDraft(), viewList, m.width)
	m.view = viewForm
	return textinput.Blink
}

func (m *appModel) openEditForm(v model.Video, returnTo view) tea.Cmd {
	m.form = newFormModel(m.sess.EditDraft(v), returnTo, m.width)
	m.view = viewForm
	return textinput.Blink
}

func (m *appModel) closeForm() {
	if m.form == nil {
		return
	}
	m.form.draft.Discard()
	m.view = m.form.returnTo
	m.form = nil
}

func (m *appModel) updateFormKey(msg tea.KeyMsg) tea.Cmd {
	f := m.form
	if f == nil {
		m.view = viewList
		return nil
	}
	if f.submitting {
		return nil
	}
	switch msg.String() {
	case "esc":
		m.closeForm()
		return nil
	case "ctrl+s":
		return m.submitForm()
	case "ctrl+r":
		f.reset()
		return f.setFocus(fieldURL)
	case "tab":
		return f.moveFocus(1)
	case "shift+tab":
		return f.moveFocus(-1)
	}

	switch f.focus {
	case fieldURL:
		if msg.String() == "enter" {
			return f.moveFocus(1)
		}
	case fieldTags:
		return f.updateTagKey(msg)
	case fieldTranscribe:
		switch msg.String() {
		case " ", "enter", "x":
			f.transcribe = !f.transcribe
		}
		return nil
	case fieldSubmit:
		if msg.String() == "enter" {
			return m.submitForm()
		}
		return nil
	}
	return f.updateInputs(msg)
}

func (f *formModel) updateTagKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		f.err = nil
		if text := strings.TrimSpace(f.tagInput.Value()); text != "" {
			if err := f.draft.Tags.AddNew(text); err != nil {
				f.err = err
				return nil
			}
			f.tagInput.SetValue("")
		} else if avail := f.pickable(); len(avail) > 0 {
			f.clampPick()
			f.draft.Tags.SelectExisting(avail[f.pick])
		}
		f.clampPick()
		return nil
	case "up":
		f.pick--
		if f.pick < 0 {
			f.pick = len(f.pickable()) - 1
		}
		f.clampPick()
		return nil
	case "down":
		f.pick++
		if f.pick >= len(f.pickable()) {
			f.pick = 0
		}
		return nil
	case "backspace":
		if f.tagInput.Value() == "" {
			if tags := f.draft.Tags.Tags(); len(tags) > 0 {
				f.draft.Tags.Remove(tags[len(tags)-1])
			}
			return nil
		}
	}
	return f.updateInputs(msg)
}

func (m *appModel) submitForm() tea.Cmd {
	f := m.form
	if f == nil || f.submitting {
		return nil
	}
	f.syncDraft()
	if err := f.draft.Validate(); err != nil {
		f.err = err
		return nil
	}
	f.err = nil
	f.submitting = true

	ctx, sess, d := m.ctx, m.sess, f.draft
	if d.Mode == draft.ModeEdit {
		id := d.ID
		return func() tea.Msg {
			v, err := sess.Update(ctx, id, d)
			return mutationDoneMsg{op: "update", id: id, video: v, err: err}
		}
	}
	return func() tea.Msg {
		v, err := sess.Create(ctx, d)
		return mutationDoneMsg{op: "create", id: v.ID, video: v, err: err}
	}
}

func (m appModel) viewForm() string {
	f := m.form
	if f == nil {
		return ""
	}
	title := "Add video"
	if f.draft.Mode == draft.ModeEdit {
		title = fmt.Sprintf("Edit video #%d", f.draft.ID)
	}

	label := func(field formField, text string) string {
		if f.focus == field {
			return styleFocused().Render("› " + text)
		}
		return styleMuted().Render("  " + text)
	}

	var b strings.Builder
	b.WriteString(styleTitle().Render(title))
	b.WriteString("\n\n")

	b.WriteString(label(fieldURL, "URL"))
	b.WriteString("\n  ")
	b.WriteString(f.url.View())
	b.WriteString("\n\n")

	b.WriteString(label(fieldTags, "Tags"))
	b.WriteString("\n  ")
	selected := f.draft.Tags.Tags()
	if len(selected) == 0 {
		b.WriteString(styleMuted().Render("(none)"))
	} else {
		chips := make([]string, 0, len(selected))
		for _, t := range selected {
			chips = append(chips, styleTag(true).Render(t))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(chips, " ")))
	}
	b.WriteString("\n  ")
	b.WriteString(f.tagInput.View())
	if f.focus == fieldTags {
		if avail := f.pickable(); len(avail) > 0 {
			idx := f.pick
			if idx >= len(avail) || idx < 0 {
				idx = 0
			}
			b.WriteString("\n  ")
			b.WriteString(styleMuted().Render("pick: "))
			b.WriteString(styleTag(false).Render(avail[idx]))
			b.WriteString(styleMuted().Render(fmt.Sprintf(" (%d/%d)", idx+1, len(avail))))
		}
	}
	b.WriteString("\n\n")

	b.WriteString(label(fieldMemo, "Memo"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(f.memo.View()))
	b.WriteString("\n\n")

	if f.draft.Mode == draft.ModeCreate {
		box := "[ ]"
		if f.transcribe {
			box = "[x]"
		}
		b.WriteString(label(fieldTranscribe, box+" Transcribe audio"))
		b.WriteString("\n\n")
	}

	submit := "Save"
	if f.submitting {
		submit = "Saving…"
	}
	b.WriteString(label(fieldSubmit, "["+submit+"]"))
	b.WriteString("\n")
	if f.err != nil {
		b.WriteString("\n")
		b.WriteString(styleError().Render(f.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.footer("tab: next field  enter: add tag  ↑/↓: pick tag  ctrl+s: save  ctrl+r: clear  esc: cancel"))
	return b.String()
}
