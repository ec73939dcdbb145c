package tags

import (
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
)

// Selection is the tag subset chosen for one draft or one search filter.
// Every mutation checks membership first, so it never holds duplicates or empty strings.
type Selection struct {
	vocab *Vocabulary
	tags  []string
	held  map[string]bool
}

func NewSelection(vocab *Vocabulary, initial ...string) *Selection {
	if vocab == nil {
		vocab = NewVocabulary(KeepPending)
	}
	return &Selection{
		vocab: vocab,
		tags:  selectable(initial),
		held:  map[string]bool{},
	}
}

// SelectExisting adds a vocabulary tag picked by the user. Empty tags and tags
// containing the delimiter are ignored.
func (s *Selection) SelectExisting(tag string) {
	tag, err := validTag(tag)
	if err != nil || tag == "" || s.Contains(tag) {
		return
	}
	s.tags = append(s.tags, tag)
}

// AddNew adds typed text as a tag, growing the vocabulary optimistically when the tag
// is unknown. Blank input is a no-op.
func (s *Selection) AddNew(text string) error {
	tag, err := validTag(text)
	if err != nil {
		return err
	}
	if tag == "" {
		return nil
	}
	if !s.Contains(tag) {
		s.tags = append(s.tags, tag)
	}
	if !s.held[tag] && s.vocab.hold(tag) {
		s.held[tag] = true
	}
	return nil
}

// Remove drops tag from the selection. The vocabulary is never shrunk.
func (s *Selection) Remove(tag string) {
	for i, t := range s.tags {
		if t == tag {
			s.tags = append(s.tags[:i:i], s.tags[i+1:]...)
			return
		}
	}
}

func (s *Selection) Toggle(tag string) {
	if s.Contains(tag) {
		s.Remove(tag)
		return
	}
	s.SelectExisting(tag)
}

// Set replaces the selection, skipping tags that contain the delimiter.
func (s *Selection) Set(tags []string) {
	s.tags = selectable(tags)
}

func (s *Selection) Clear() { s.tags = nil }

func (s *Selection) Contains(tag string) bool {
	for _, t := range s.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *Selection) Tags() model.Tags {
	out := make(model.Tags, len(s.tags))
	copy(out, s.tags)
	return out
}

func (s *Selection) Len() int { return len(s.tags) }

// Available lists vocabulary tags not yet selected.
func (s *Selection) Available() []string {
	var out []string
	for _, t := range s.vocab.Tags() {
		if !s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Selection) Vocabulary() *Vocabulary { return s.vocab }

// selectable normalizes tags and drops any that would split on encoding.
func selectable(tags []string) []string {
	var out []string
	for _, t := range model.NormalizeTags(tags) {
		if !strings.Contains(t, model.TagDelimiter) {
			out = append(out, t)
		}
	}
	return out
}

// Release gives up the pending tags this selection introduced. Call it when the owning
// draft is submitted, cancelled or reset. The selection remains usable.
func (s *Selection) Release() {
	for t := range s.held {
		s.vocab.release(t)
	}
	s.held = map[string]bool{}
}
