package statusutil

import (
	"testing"

	"github.com/koji0214/summaryoutube/internal/model"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in      string
		want    model.Status
		wantErr bool
	}{
		{"pending", model.StatusPending, false},
		{"PROCESSING", model.StatusProcessing, false},
		{" done ", model.StatusCompleted, false},
		{"failed", model.StatusFailed, false},
		{"", "", true},
		{"paused", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeStatus(tc.in)
		if tc.wantErr && err == nil {
			t.Fatalf("NormalizeStatus(%q): expected error", tc.in)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("NormalizeStatus(%q): unexpected error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("NormalizeStatus(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeSortKey(t *testing.T) {
	cases := []struct {
		in      string
		want    model.SortKey
		wantErr bool
	}{
		{"", model.SortByID, false},
		{"title", model.SortByTitle, false},
		{"channelName", model.SortByChannelName, false},
		{"channel_name", model.SortByChannelName, false},
		{"created-at", model.SortByCreatedAt, false},
		{"updatedAt", model.SortByUpdatedAt, false},
		{"views", "", true},
	}
	for _, tc := range cases {
		got, err := NormalizeSortKey(tc.in)
		if tc.wantErr != (err != nil) {
			t.Fatalf("NormalizeSortKey(%q): err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("NormalizeSortKey(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestNormalizeSortOrder(t *testing.T) {
	if o, err := NormalizeSortOrder(""); err != nil || o != model.SortAsc {
		t.Fatalf("default order: %q %v", o, err)
	}
	if o, err := NormalizeSortOrder("DESC"); err != nil || o != model.SortDesc {
		t.Fatalf("desc: %q %v", o, err)
	}
	if _, err := NormalizeSortOrder("up"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestBadge(t *testing.T) {
	if Badge(model.StatusCompleted) != "" {
		t.Fatalf("completed videos carry no badge")
	}
	if Badge(model.StatusProcessing) == "" {
		t.Fatalf("processing videos need a badge")
	}
}
