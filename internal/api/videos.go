package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/koji0214/summaryoutube/internal/model"
)

func videoPath(id int64) string {
	return fmt.Sprintf("/api/videos/%d", id)
}

// ListVideos returns the videos matching params (see query.Query.Params). An empty
// result is a non-nil empty slice.
func (c *Client) ListVideos(ctx context.Context, params url.Values) ([]model.Video, error) {
	var out []model.Video
	if err := c.do(ctx, http.MethodGet, "/api/videos/", params, nil, &out); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	if out == nil {
		out = []model.Video{}
	}
	return out, nil
}

func (c *Client) GetVideo(ctx context.Context, id int64) (model.Video, error) {
	var v model.Video
	if err := c.do(ctx, http.MethodGet, videoPath(id), nil, nil, &v); err != nil {
		return model.Video{}, fmt.Errorf("get video %d: %w", id, err)
	}
	return v, nil
}

func (c *Client) CreateVideo(ctx context.Context, req model.CreateRequest) (model.Video, error) {
	var v model.Video
	if err := c.do(ctx, http.MethodPost, "/api/videos/", nil, req, &v); err != nil {
		return model.Video{}, fmt.Errorf("create video: %w", err)
	}
	return v, nil
}

func (c *Client) UpdateVideo(ctx context.Context, id int64, req model.UpdateRequest) (model.Video, error) {
	var v model.Video
	if err := c.do(ctx, http.MethodPut, videoPath(id), nil, req, &v); err != nil {
		return model.Video{}, fmt.Errorf("update video %d: %w", id, err)
	}
	return v, nil
}

func (c *Client) DeleteVideo(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, videoPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete video %d: %w", id, err)
	}
	return nil
}

// GetTranscript calls the legacy transcript endpoint.
func (c *Client) GetTranscript(ctx context.Context, id int64) (string, error) {
	var tr model.TranscriptResponse
	if err := c.do(ctx, http.MethodGet, videoPath(id)+"/transcript", nil, nil, &tr); err != nil {
		return "", fmt.Errorf("get transcript %d: %w", id, err)
	}
	return tr.Transcript, nil
}
