package model

import (
	"encoding/json"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

func (s Status) String() string { return string(s) }

// InProgress reports whether the backend is still working on the video.
func (s Status) InProgress() bool {
	return s == StatusPending || s == StatusProcessing
}

// Terminal reports whether polling should stop. Unknown values count as terminal so a
// client never watches a status it does not understand.
func (s Status) Terminal() bool {
	return !s.InProgress()
}

type Video struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	ChannelName string     `json:"channel_name"`
	Tags        Tags       `json:"tags"`
	Memo        string     `json:"memo"`
	Status      Status     `json:"status"`
	Transcript  string     `json:"transcript,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// UnmarshalJSON applies the compatibility rule for records created before status
// tracking existed: a missing or empty status means the video is completed.
func (v *Video) UnmarshalJSON(b []byte) error {
	type wireVideo Video
	var w wireVideo
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*v = Video(w)
	if strings.TrimSpace(string(v.Status)) == "" {
		v.Status = StatusCompleted
	}
	return nil
}

// Timestamp accepts both RFC 3339 and the zone-less ISO form emitted by the backend.
// Zone-less values are read as UTC.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Timestamp{}, firstErr
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	ts, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = ts
	return nil
}

type CreateRequest struct {
	URL                 string `json:"url"`
	Tags                string `json:"tags"`
	Memo                string `json:"memo"`
	TranscriptionOption string `json:"transcriptionOption,omitempty"`
}

type UpdateRequest struct {
	URL  string `json:"url"`
	Tags string `json:"tags"`
	Memo string `json:"memo"`
}

type TranscriptResponse struct {
	Transcript string `json:"transcript"`
}

const TranscriptionStandard = "standard"
