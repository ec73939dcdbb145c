// Package draft holds the in-progress create and edit forms.
package draft

import (
	"errors"
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/tags"
)

var (
	ErrURLRequired    = errors.New("url is required")
	ErrUnsupportedURL = errors.New("url is not a supported YouTube link")
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// Draft is a form being filled in. Tags live in a Selection bound to the session's
// vocabulary so new tags show up in pickers before they are saved.
type Draft struct {
	Mode Mode
	// ID is the video being edited. Zero in create mode.
	ID                  int64
	URL                 string
	Memo                string
	TranscriptionOption string
	Tags                *tags.Selection
}

func New(vocab *tags.Vocabulary) *Draft {
	return &Draft{Mode: ModeCreate, Tags: tags.NewSelection(vocab)}
}

// FromVideo seeds an edit draft. The tag selection comes from the decoded tag set, so
// the server's order does not matter.
func FromVideo(vocab *tags.Vocabulary, v model.Video) *Draft {
	return &Draft{
		Mode: ModeEdit,
		ID:   v.ID,
		URL:  v.URL,
		Memo: v.Memo,
		Tags: tags.NewSelection(vocab, v.Tags...),
	}
}

func (d *Draft) Validate() error {
	u := strings.TrimSpace(d.URL)
	if u == "" {
		return ErrURLRequired
	}
	if _, ok := model.ExtractVideoID(u); !ok {
		return ErrUnsupportedURL
	}
	return nil
}

func (d *Draft) CreateRequest() model.CreateRequest {
	return model.CreateRequest{
		URL:                 strings.TrimSpace(d.URL),
		Tags:                model.EncodeTags(d.Tags.Tags()),
		Memo:                d.Memo,
		TranscriptionOption: d.TranscriptionOption,
	}
}

func (d *Draft) UpdateRequest() model.UpdateRequest {
	return model.UpdateRequest{
		URL:  strings.TrimSpace(d.URL),
		Tags: model.EncodeTags(d.Tags.Tags()),
		Memo: d.Memo,
	}
}

// Reset clears every field and releases tags the draft introduced. The mode and ID
// are kept so an edit draft can be refilled.
func (d *Draft) Reset() {
	d.URL = ""
	d.Memo = ""
	d.TranscriptionOption = ""
	d.Tags.Release()
	d.Tags.Clear()
}

// Discard releases the draft's pending tags without clearing it. Use it once the draft
// has been submitted or the form is closed.
func (d *Draft) Discard() {
	d.Tags.Release()
}
