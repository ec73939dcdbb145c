package devserver

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/koji0214/summaryoutube/internal/api"
	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/poll"
	"github.com/koji0214/summaryoutube/internal/retry"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := OpenStore(context.Background(), "sqlite", "file:"+filepath.Join(t.TempDir(), "videos.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func startServer(t *testing.T, opts Options) (*api.Client, *httptest.Server) {
	t.Helper()
	srv := New(openTestStore(t), opts)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	c, err := api.New(api.Options{BaseURL: ts.URL, Retry: retry.Config{MaxRetries: 0, Multiplier: 1}})
	require.NoError(t, err)
	return c, ts
}

func TestCRUDRoundTrip(t *testing.T) {
	c, _ := startServer(t, Options{})
	ctx := context.Background()

	created, err := c.CreateVideo(ctx, model.CreateRequest{URL: "https://www.youtube.com/watch?v=abc", Tags: "b,a", Memo: "m"})
	require.NoError(t, err)
	assert.Equal(t, "YouTube video abc", created.Title)
	assert.Equal(t, model.StatusCompleted, created.Status, "no transcription requested")
	assert.True(t, created.Tags.Equal(model.Tags{"a", "b"}))
	require.NotNil(t, created.CreatedAt)

	got, err := c.GetVideo(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "m", got.Memo)

	updated, err := c.UpdateVideo(ctx, created.ID, model.UpdateRequest{URL: "https://youtu.be/xyz", Tags: "c", Memo: "n"})
	require.NoError(t, err)
	assert.Equal(t, "YouTube video xyz", updated.Title, "metadata follows the new url")
	assert.Equal(t, model.Tags{"c"}, updated.Tags)

	require.NoError(t, c.DeleteVideo(ctx, created.ID))
	_, err = c.GetVideo(ctx, created.ID)
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.ErrorIs(t, c.DeleteVideo(ctx, created.ID), api.ErrNotFound)
}

func TestCreateRejectsNonYouTubeURL(t *testing.T) {
	c, _ := startServer(t, Options{})
	_, err := c.CreateVideo(context.Background(), model.CreateRequest{URL: "https://example.com/v/1"})
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)
	assert.Equal(t, "Invalid YouTube URL", he.Detail)
}

func TestSearchFiltersAndSorts(t *testing.T) {
	c, _ := startServer(t, Options{})
	ctx := context.Background()
	for _, in := range []struct{ id, tags string }{
		{"intro1", "tutorial,beginner"},
		{"intro2", "tutorial"},
		{"other", "beginner,music"},
	} {
		_, err := c.CreateVideo(ctx, model.CreateRequest{URL: "https://youtu.be/" + in.id, Tags: in.tags})
		require.NoError(t, err)
	}

	all, err := c.ListVideos(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Less(t, all[0].ID, all[1].ID, "default sort is id asc")

	both, err := c.ListVideos(ctx, url.Values{"tags_query": {"tutorial,beginner"}})
	require.NoError(t, err)
	require.Len(t, both, 1, "every requested tag must match")
	assert.Equal(t, "https://youtu.be/intro1", both[0].URL)

	titled, err := c.ListVideos(ctx, url.Values{"title_query": {"INTRO"}, "sort_by": {"title"}, "sort_order": {"desc"}})
	require.NoError(t, err)
	require.Len(t, titled, 2)
	assert.Equal(t, "YouTube video intro2", titled[0].Title)

	_, err = c.ListVideos(ctx, url.Values{"sort_by": {"views"}})
	var he *api.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.StatusCode)

	tags, err := c.ListTags(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beginner", "music", "tutorial"}, tags)
}

func TestTranscriptionJobCompletes(t *testing.T) {
	c, _ := startServer(t, Options{TranscribeDelay: 20 * time.Millisecond})
	ctx := context.Background()

	v, err := c.CreateVideo(ctx, model.CreateRequest{URL: "https://youtu.be/job", TranscriptionOption: model.TranscriptionStandard})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, v.Status)

	var seen []model.Status
	h := poll.Watcher{Interval: 2 * time.Millisecond, Fetcher: c.NoRetry()}.Open(ctx, v.ID, func(v model.Video) {
		seen = append(seen, v.Status)
	})
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, h.Wait(waitCtx))

	final := h.Video()
	assert.Equal(t, model.StatusCompleted, final.Status)
	assert.NotEmpty(t, final.Transcript)
	assert.Equal(t, model.StatusPending, seen[0])

	tr, err := c.GetTranscript(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, final.Transcript, tr)
}

func TestUnknownVideoID(t *testing.T) {
	c, ts := startServer(t, Options{})
	_, err := c.GetTranscript(context.Background(), 404)
	assert.ErrorIs(t, err, api.ErrNotFound)

	resp, err := http.Get(ts.URL + "/api/videos/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	c, ts := startServer(t, Options{})
	_, err := c.ListTags(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `summaryoutube_devserver_requests_total{code="200",method="GET",route="/api/tags/"} 1`)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "m.sqlite")
	st, err := OpenStore(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	_, err = st.Insert(context.Background(), model.Video{URL: "u", Status: model.StatusCompleted})
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenStore(context.Background(), "sqlite", dsn)
	require.NoError(t, err)
	defer st.Close()
	videos, err := st.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, videos, 1)
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: dialectPostgres}
	assert.Equal(t, "UPDATE video SET a = $1 WHERE id = $2", pg.rebind("UPDATE video SET a = ? WHERE id = ?"))
	lite := &Store{dialect: dialectSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestShiftPath(t *testing.T) {
	cases := []struct{ in, head, tail string }{
		{"/api/videos/", "api", "/videos"},
		{"/videos", "videos", "/"},
		{"/", "", "/"},
		{"/7/transcript", "7", "/transcript"},
	}
	for _, tc := range cases {
		h, tl := ShiftPath(tc.in)
		assert.Equal(t, tc.head, h, tc.in)
		assert.Equal(t, tc.tail, tl, tc.in)
	}
}

func TestYouTubeExtractor(t *testing.T) {
	yt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/videos"), r.URL.Path)
		assert.Equal(t, "dQw4w9WgXcQ", r.URL.Query().Get("id"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"items":[{"id":"dQw4w9WgXcQ","snippet":{"title":"Never Gonna","channelTitle":"Rick"}}]}`)
	}))
	defer yt.Close()

	ex, err := NewYouTubeExtractor(context.Background(), "key",
		option.WithEndpoint(yt.URL+"/"), option.WithHTTPClient(yt.Client()))
	require.NoError(t, err)
	md, err := ex.Extract(context.Background(), "dQw4w9WgXcQ")
	require.NoError(t, err)
	assert.Equal(t, Metadata{Title: "Never Gonna", ChannelName: "Rick"}, md)
}
