package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// TagDelimiter separates tags in the transport form. It is not escaped, so tag text
// must never contain it.
const TagDelimiter = ","

// Tags is a deduplicated tag set. On the wire it is a single comma-joined string.
type Tags []string

// NormalizeTags trims entries and drops empties and duplicates, keeping first-seen order.
func NormalizeTags(xs []string) Tags {
	seen := map[string]bool{}
	out := make(Tags, 0, len(xs))
	for _, x := range xs {
		x = strings.TrimSpace(x)
		if x == "" || seen[x] {
			continue
		}
		seen[x] = true
		out = append(out, x)
	}
	return out
}

func EncodeTags(xs []string) string {
	return strings.Join(NormalizeTags(xs), TagDelimiter)
}

func DecodeTags(s string) Tags {
	if strings.TrimSpace(s) == "" {
		return Tags{}
	}
	return NormalizeTags(strings.Split(s, TagDelimiter))
}

func (t Tags) String() string { return EncodeTags(t) }

func (t Tags) Contains(tag string) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Equal compares as sets; order is not significant.
func (t Tags) Equal(o Tags) bool {
	a := NormalizeTags(t)
	b := NormalizeTags(o)
	if len(a) != len(b) {
		return false
	}
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal(EncodeTags(t))
}

// UnmarshalJSON accepts the comma-joined string, null, or a JSON array.
func (t *Tags) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Tags{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = DecodeTags(s)
		return nil
	}
	var xs []string
	if err := json.Unmarshal(b, &xs); err != nil {
		return err
	}
	*t = NormalizeTags(xs)
	return nil
}
