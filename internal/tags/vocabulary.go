// Package tags keeps the client's view of the global tag vocabulary and the per-draft
// tag selections that grow it.
//
// The server's tag list is authoritative. Tags typed into a draft are added to the
// vocabulary optimistically and stay "pending" until a refresh shows them on the server.
package tags

import (
	"errors"
	"strings"
	"sync"

	"github.com/koji0214/summaryoutube/internal/model"
)

var ErrDelimiter = errors.New("tag must not contain " + `"` + model.TagDelimiter + `"`)

type Policy int

const (
	// KeepPending re-appends pending tags still held by a live selection on refresh.
	KeepPending Policy = iota
	// DropPending lets the server list replace the vocabulary verbatim.
	DropPending
)

type Vocabulary struct {
	mu     sync.RWMutex
	policy Policy
	tags   []string
	// pending counts, per optimistic tag, the live selections that introduced it.
	pending map[string]int
}

func NewVocabulary(policy Policy, initial ...string) *Vocabulary {
	return &Vocabulary{
		policy:  policy,
		tags:    []string(model.NormalizeTags(initial)),
		pending: map[string]int{},
	}
}

// Tags returns a copy of the vocabulary in insertion order.
func (v *Vocabulary) Tags() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, len(v.tags))
	copy(out, v.tags)
	return out
}

func (v *Vocabulary) Has(tag string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.indexLocked(tag) >= 0
}

func (v *Vocabulary) Pending(tag string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pending[tag] > 0
}

// Replace installs the server's tag list. Server state wins; see Policy for what
// happens to unsaved optimistic tags.
func (v *Vocabulary) Replace(server []string) {
	next := []string(model.NormalizeTags(server))

	v.mu.Lock()
	defer v.mu.Unlock()

	onServer := make(map[string]bool, len(next))
	for _, t := range next {
		onServer[t] = true
	}
	for t := range v.pending {
		if onServer[t] {
			delete(v.pending, t)
		}
	}
	if v.policy == KeepPending {
		for _, t := range v.tags {
			if v.pending[t] > 0 && !onServer[t] {
				next = append(next, t)
			}
		}
	} else {
		v.pending = map[string]int{}
	}
	v.tags = next
}

// hold appends tag when unknown and marks it pending. A tag that is already pending
// gains another holder. It reports whether the caller now holds the tag.
func (v *Vocabulary) hold(tag string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.indexLocked(tag) >= 0 {
		if v.pending[tag] > 0 {
			v.pending[tag]++
			return true
		}
		return false
	}
	v.tags = append(v.tags, tag)
	v.pending[tag]++
	return true
}

func (v *Vocabulary) release(tag string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	n, ok := v.pending[tag]
	if !ok {
		return
	}
	if n <= 1 {
		delete(v.pending, tag)
		return
	}
	v.pending[tag] = n - 1
}

func (v *Vocabulary) indexLocked(tag string) int {
	for i, t := range v.tags {
		if t == tag {
			return i
		}
	}
	return -1
}

func validTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if strings.Contains(tag, model.TagDelimiter) {
		return "", ErrDelimiter
	}
	return tag, nil
}
