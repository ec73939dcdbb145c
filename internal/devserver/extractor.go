package devserver

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var errNoMetadata = errors.New("could not retrieve video details")

// Metadata is what the server derives from a video URL.
type Metadata struct {
	Title       string
	ChannelName string
}

type Extractor interface {
	Extract(ctx context.Context, videoID string) (Metadata, error)
}

// YouTubeExtractor looks videos up through the YouTube Data API.
type YouTubeExtractor struct {
	svc *youtube.Service
}

func NewYouTubeExtractor(ctx context.Context, apiKey string, opts ...option.ClientOption) (*YouTubeExtractor, error) {
	svc, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("youtube client: %w", err)
	}
	return &YouTubeExtractor{svc: svc}, nil
}

func (y *YouTubeExtractor) Extract(ctx context.Context, videoID string) (Metadata, error) {
	resp, err := y.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return Metadata{}, fmt.Errorf("youtube videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return Metadata{}, errNoMetadata
	}
	sn := resp.Items[0].Snippet
	if sn.Title == "" || sn.ChannelTitle == "" {
		return Metadata{}, errNoMetadata
	}
	return Metadata{Title: sn.Title, ChannelName: sn.ChannelTitle}, nil
}

// StaticExtractor fabricates metadata from the id. It is used when no API key is set.
type StaticExtractor struct{}

func (StaticExtractor) Extract(_ context.Context, videoID string) (Metadata, error) {
	return Metadata{Title: "YouTube video " + videoID, ChannelName: "Unknown channel"}, nil
}
