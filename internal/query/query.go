// Package query holds the search and sort parameters sent with every list request.
package query

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
)

// Query is an immutable snapshot of the current search.
type Query struct {
	Title     string
	Tags      model.Tags
	SortKey   model.SortKey
	SortOrder model.SortOrder
}

func Default() Query {
	return Query{Tags: model.Tags{}, SortKey: model.DefaultSortKey, SortOrder: model.DefaultSortOrder}
}

// IsDefault reports whether q filters nothing and uses the default ordering.
func (q Query) IsDefault() bool {
	return q.Title == "" && len(q.Tags) == 0 && q.SortKey == model.DefaultSortKey && q.SortOrder == model.DefaultSortOrder
}

// Params encodes q for GET /api/videos/. Empty filters are omitted; sort fields never are.
func (q Query) Params() url.Values {
	v := url.Values{}
	if q.Title != "" {
		v.Set("title_query", q.Title)
	}
	if tags := model.EncodeTags(q.Tags); tags != "" {
		v.Set("tags_query", tags)
	}
	key, order := q.SortKey, q.SortOrder
	if key == "" {
		key = model.DefaultSortKey
	}
	if order == "" {
		order = model.DefaultSortOrder
	}
	v.Set("sort_by", string(key))
	v.Set("sort_order", string(order))
	return v
}

func (q Query) String() string {
	var parts []string
	if q.Title != "" {
		parts = append(parts, fmt.Sprintf("title~%q", q.Title))
	}
	if len(q.Tags) > 0 {
		parts = append(parts, "tags="+model.EncodeTags(q.Tags))
	}
	parts = append(parts, fmt.Sprintf("sort=%s %s", q.SortKey.Label(), q.SortOrder))
	return strings.Join(parts, " ")
}

// Builder is the mutable query owned by a session. It is not safe for concurrent use;
// the session serializes access.
type Builder struct {
	q Query
}

func NewBuilder() *Builder {
	return &Builder{q: Default()}
}

func (b *Builder) SetTitle(title string) {
	b.q.Title = strings.TrimSpace(title)
}

func (b *Builder) SetTagFilter(tags []string) {
	b.q.Tags = model.NormalizeTags(tags)
}

func (b *Builder) SetSort(key model.SortKey, order model.SortOrder) error {
	if !key.Valid() {
		return fmt.Errorf("invalid sort key: %q", key)
	}
	if !order.Valid() {
		return fmt.Errorf("invalid sort order: %q", order)
	}
	b.q.SortKey = key
	b.q.SortOrder = order
	return nil
}

// Apply replaces all four fields at once. Nothing from the previous query carries over,
// and on error the builder is left unchanged.
func (b *Builder) Apply(title string, tags []string, key model.SortKey, order model.SortOrder) error {
	next := &Builder{q: Default()}
	next.SetTitle(title)
	next.SetTagFilter(tags)
	if err := next.SetSort(key, order); err != nil {
		return err
	}
	b.q = next.q
	return nil
}

func (b *Builder) Reset() {
	b.q = Default()
}

// Query returns a copy of the current state.
func (b *Builder) Query() Query {
	q := b.q
	q.Tags = append(model.Tags{}, b.q.Tags...)
	return q
}

func (b *Builder) Params() url.Values {
	return b.q.Params()
}
