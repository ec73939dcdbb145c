package tags

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_SelectExisting(t *testing.T) {
	v := NewVocabulary(KeepPending, "music", "tutorial")
	s := NewSelection(v)

	s.SelectExisting("music")
	s.SelectExisting("music")
	s.SelectExisting("")
	s.SelectExisting("   ")

	assert.Equal(t, []string{"music"}, []string(s.Tags()))
	assert.Equal(t, []string{"music", "tutorial"}, v.Tags(), "selecting never changes the vocabulary")
}

func TestSelection_AddNewGrowsVocabulary(t *testing.T) {
	v := NewVocabulary(KeepPending, "music")
	s := NewSelection(v)

	require.NoError(t, s.AddNew("  live  "))
	require.NoError(t, s.AddNew("live"))
	require.NoError(t, s.AddNew("music"))
	require.NoError(t, s.AddNew(""))

	assert.Equal(t, []string{"live", "music"}, []string(s.Tags()))
	assert.Equal(t, []string{"music", "live"}, v.Tags())
	assert.True(t, v.Pending("live"))
	assert.False(t, v.Pending("music"), "known tags are not optimistic")
}

func TestSelection_AddNewRejectsDelimiter(t *testing.T) {
	v := NewVocabulary(KeepPending)
	s := NewSelection(v)

	err := s.AddNew("a,b")
	require.True(t, errors.Is(err, ErrDelimiter))
	assert.Empty(t, s.Tags())
	assert.Empty(t, v.Tags())
}

func TestSelection_SkipsDelimiterTagsOnEveryPath(t *testing.T) {
	v := NewVocabulary(KeepPending, "a,b", "music")
	s := NewSelection(v, "x,y", "live")
	assert.Equal(t, []string{"live"}, []string(s.Tags()))

	s.SelectExisting("a,b")
	s.Toggle("a,b")
	s.SelectExisting("music")
	assert.Equal(t, []string{"live", "music"}, []string(s.Tags()))

	s.Set([]string{"one", "two,three", "one"})
	assert.Equal(t, []string{"one"}, []string(s.Tags()))
}

func TestSelection_RemoveKeepsVocabulary(t *testing.T) {
	v := NewVocabulary(KeepPending)
	s := NewSelection(v)
	require.NoError(t, s.AddNew("x"))

	s.Remove("x")
	s.Remove("never-there")

	assert.Empty(t, s.Tags())
	assert.Equal(t, []string{"x"}, v.Tags())
}

func TestSelection_Toggle(t *testing.T) {
	s := NewSelection(NewVocabulary(KeepPending, "a", "b"))
	s.Toggle("a")
	s.Toggle("b")
	s.Toggle("a")
	assert.Equal(t, []string{"b"}, []string(s.Tags()))
}

func TestSelection_NoDuplicatesOrEmptiesUnderRandomOps(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	inputs := []string{"", " ", "a", " a", "b", "c ", "d", "a,b"}
	v := NewVocabulary(KeepPending, "a", "b")
	s := NewSelection(v)

	for i := 0; i < 2000; i++ {
		in := inputs[r.Intn(len(inputs))]
		switch r.Intn(5) {
		case 0:
			s.SelectExisting(in)
		case 1:
			_ = s.AddNew(in)
		case 2:
			s.Remove(in)
		case 3:
			s.Toggle(in)
		case 4:
			s.Set(append(s.Tags(), in))
		}

		seen := map[string]bool{}
		for _, tag := range s.Tags() {
			require.NotEmpty(t, tag, "step %d", i)
			require.False(t, strings.Contains(tag, ","), "delimiter in %q at step %d", tag, i)
			require.False(t, seen[tag], "duplicate %q at step %d", tag, i)
			seen[tag] = true
		}
	}
}

func TestVocabulary_ReplaceKeepsHeldPendingTags(t *testing.T) {
	v := NewVocabulary(KeepPending, "music")
	s := NewSelection(v)
	require.NoError(t, s.AddNew("draft-only"))

	v.Replace([]string{"music", "tutorial"})

	assert.Equal(t, []string{"music", "tutorial", "draft-only"}, v.Tags())

	s.Release()
	v.Replace([]string{"music", "tutorial"})
	assert.Equal(t, []string{"music", "tutorial"}, v.Tags(), "released tags are dropped by the next refresh")
}

func TestVocabulary_ReplaceConfirmsSavedTags(t *testing.T) {
	v := NewVocabulary(KeepPending)
	s := NewSelection(v)
	require.NoError(t, s.AddNew("saved"))

	v.Replace([]string{"saved"})

	assert.False(t, v.Pending("saved"))
	assert.Equal(t, []string{"saved"}, v.Tags())
}

func TestVocabulary_DropPendingMatchesServer(t *testing.T) {
	v := NewVocabulary(DropPending, "music")
	s := NewSelection(v)
	require.NoError(t, s.AddNew("draft-only"))

	v.Replace([]string{"music"})

	assert.Equal(t, []string{"music"}, v.Tags())
	assert.Equal(t, []string{"draft-only"}, []string(s.Tags()), "the selection itself is untouched")
}

func TestVocabulary_SharedPendingTagSurvivesOneRelease(t *testing.T) {
	v := NewVocabulary(KeepPending)
	a := NewSelection(v)
	b := NewSelection(v)
	require.NoError(t, a.AddNew("shared"))
	require.NoError(t, b.AddNew("shared"))

	a.Release()
	v.Replace(nil)
	assert.Equal(t, []string{"shared"}, v.Tags())

	b.Release()
	v.Replace(nil)
	assert.Empty(t, v.Tags())
}

func TestSelection_Available(t *testing.T) {
	s := NewSelection(NewVocabulary(KeepPending, "a", "b", "c"), "b")
	assert.Equal(t, []string{"a", "c"}, s.Available())
}
