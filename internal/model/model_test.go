package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestVideoUnmarshal_MissingStatusIsCompleted(t *testing.T) {
	var v Video
	if err := json.Unmarshal([]byte(`{"id":3,"url":"https://youtu.be/abc","title":"T","channel_name":"C","tags":"a,b","memo":null}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Status != StatusCompleted {
		t.Fatalf("expected legacy record to decode as completed; got %q", v.Status)
	}
	if !v.Tags.Equal(Tags{"b", "a"}) {
		t.Fatalf("unexpected tags: %#v", v.Tags)
	}
	if v.Memo != "" {
		t.Fatalf("expected null memo to decode empty; got %q", v.Memo)
	}
}

func TestVideoUnmarshal_KeepsExplicitStatus(t *testing.T) {
	var v Video
	if err := json.Unmarshal([]byte(`{"id":1,"status":"processing"}`), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.Status != StatusProcessing {
		t.Fatalf("got %q", v.Status)
	}
}

func TestVideoUnmarshal_ZonelessTimestamps(t *testing.T) {
	var v Video
	raw := `{"id":1,"created_at":"2023-01-01T00:00:00","updated_at":"2023-01-02T03:04:05.123456"}`
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.CreatedAt == nil || !v.CreatedAt.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected created_at: %v", v.CreatedAt)
	}
	if v.UpdatedAt == nil || v.UpdatedAt.Hour() != 3 {
		t.Fatalf("unexpected updated_at: %v", v.UpdatedAt)
	}
}

func TestStatus_Terminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{Status("archived"), true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("Status(%s).Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=10", "dQw4w9WgXcQ", true},
		{"https://youtu.be/XYZ123", "XYZ123", true},
		{"youtu.be/XYZ123?si=abc", "XYZ123", true},
		{"https://www.youtube.com/embed/abc", "abc", true},
		{"https://youtube.com/v/abc?x=1", "abc", true},
		{"https://vimeo.com/123", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractVideoID(tt.url)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractVideoID(%q) = %q,%v want %q,%v", tt.url, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSortKey_Valid(t *testing.T) {
	for _, k := range SortKeys {
		if !k.Valid() {
			t.Errorf("expected %q to be valid", k)
		}
	}
	if SortKey("channelName").Valid() {
		t.Fatalf("camelCase key must not be accepted on the wire")
	}
	if SortAsc.Flip() != SortDesc || SortDesc.Flip() != SortAsc {
		t.Fatalf("flip mismatch")
	}
}
