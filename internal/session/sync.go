package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/koji0214/summaryoutube/internal/draft"
	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/query"
)

// Load fetches the list for the current query and the tag vocabulary.
func (s *Session) Load(ctx context.Context) error {
	err := s.reload(ctx)
	s.setErr(err)
	return err
}

// Refresh is Load under the name the UI uses for a manual refresh.
func (s *Session) Refresh(ctx context.Context) error { return s.Load(ctx) }

// Search replaces the whole query and fetches the list for it. The query is committed
// only when the fetch succeeds.
func (s *Session) Search(ctx context.Context, title string, tagFilter []string, key model.SortKey, order model.SortOrder) error {
	next := query.NewBuilder()
	if err := next.Apply(title, tagFilter, key, order); err != nil {
		return err
	}
	return s.fetchWith(ctx, next)
}

// ResetQuery restores the default query and refetches.
func (s *Session) ResetQuery(ctx context.Context) error {
	return s.fetchWith(ctx, query.NewBuilder())
}

func (s *Session) fetchWith(ctx context.Context, b *query.Builder) error {
	videos, err := s.backend.ListVideos(ctx, b.Params())
	if err != nil {
		s.setErr(err)
		return err
	}
	s.mu.Lock()
	s.query = b
	s.videos = videos
	s.loaded = true
	s.lastErr = nil
	s.mu.Unlock()
	s.log.Debug("search", "query", b.Query().String(), "count", len(videos))
	return nil
}

// reload refetches the list with the current query, then the tag vocabulary. The tag
// refetch runs even when the list fetch fails; a failed list fetch leaves the list
// untouched. Both errors are returned joined.
func (s *Session) reload(ctx context.Context) error {
	s.mu.RLock()
	params := s.query.Params()
	s.mu.RUnlock()

	videos, listErr := s.backend.ListVideos(ctx, params)
	if listErr == nil {
		s.mu.Lock()
		s.videos = videos
		s.loaded = true
		s.mu.Unlock()
	} else {
		listErr = fmt.Errorf("list videos: %w", listErr)
	}

	serverTags, tagsErr := s.backend.ListTags(ctx)
	if tagsErr == nil {
		s.vocab.Replace(serverTags)
	} else {
		tagsErr = fmt.Errorf("list tags: %w", tagsErr)
	}
	if err := errors.Join(listErr, tagsErr); err != nil {
		return err
	}
	s.log.Debug("reloaded", "videos", len(videos), "tags", len(serverTags))
	return nil
}

// afterMutation reloads and wraps a reload failure so callers can tell the mutation
// itself went through.
func (s *Session) afterMutation(ctx context.Context, op string) error {
	if err := s.reload(ctx); err != nil {
		rerr := &ReloadError{Op: op, Err: err}
		s.setErr(rerr)
		s.log.Warn("reload after mutation failed", "op", op, "err", err)
		return rerr
	}
	s.setErr(nil)
	return nil
}

// Create submits d. On failure the displayed state is untouched and d keeps its contents.
func (s *Session) Create(ctx context.Context, d *draft.Draft) (model.Video, error) {
	if err := d.Validate(); err != nil {
		return model.Video{}, err
	}
	key := "create"
	if err := s.begin(key); err != nil {
		return model.Video{}, err
	}
	defer s.end(key)

	v, err := s.backend.CreateVideo(ctx, d.CreateRequest())
	if err != nil {
		s.setErr(err)
		return model.Video{}, err
	}
	s.log.Info("video created", "id", v.ID, "status", v.Status)
	d.Discard()
	return v, s.afterMutation(ctx, "create")
}

// Update submits an edit of video id.
func (s *Session) Update(ctx context.Context, id int64, d *draft.Draft) (model.Video, error) {
	if err := d.Validate(); err != nil {
		return model.Video{}, err
	}
	key := fmt.Sprintf("update:%d", id)
	if err := s.begin(key); err != nil {
		return model.Video{}, err
	}
	defer s.end(key)

	v, err := s.backend.UpdateVideo(ctx, id, d.UpdateRequest())
	if err != nil {
		s.setErr(err)
		return model.Video{}, err
	}
	s.log.Info("video updated", "id", id)
	d.Discard()
	return v, s.afterMutation(ctx, "update")
}

func (s *Session) Delete(ctx context.Context, id int64) error {
	key := fmt.Sprintf("delete:%d", id)
	if err := s.begin(key); err != nil {
		return err
	}
	defer s.end(key)

	if err := s.backend.DeleteVideo(ctx, id); err != nil {
		s.setErr(err)
		return err
	}
	s.log.Info("video deleted", "id", id)
	return s.afterMutation(ctx, "delete")
}
