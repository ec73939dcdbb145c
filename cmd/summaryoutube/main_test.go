package main

import (
	"reflect"
	"testing"
)

func TestRewriteVideoShortcut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"summaryoutube"},
			want: []string{"summaryoutube"},
		},
		{
			name: "id first token",
			in:   []string{"summaryoutube", "42"},
			want: []string{"summaryoutube", "videos", "show", "42"},
		},
		{
			name: "id after value flag",
			in:   []string{"summaryoutube", "--server", "http://localhost:9000", "42"},
			want: []string{"summaryoutube", "--server", "http://localhost:9000", "videos", "show", "42"},
		},
		{
			name: "id after equals flag",
			in:   []string{"summaryoutube", "--format=text", "42", "--watch"},
			want: []string{"summaryoutube", "--format=text", "videos", "show", "42", "--watch"},
		},
		{
			name: "id after bool flag",
			in:   []string{"summaryoutube", "--pretty", "42"},
			want: []string{"summaryoutube", "--pretty", "videos", "show", "42"},
		},
		{
			name: "id after double dash",
			in:   []string{"summaryoutube", "--", "42"},
			want: []string{"summaryoutube", "--", "videos", "show", "42"},
		},
		{
			name: "numeric flag value is not an id",
			in:   []string{"summaryoutube", "--config", "7"},
			want: []string{"summaryoutube", "--config", "7"},
		},
		{
			name: "subcommand not rewritten",
			in:   []string{"summaryoutube", "videos", "show", "42"},
			want: []string{"summaryoutube", "videos", "show", "42"},
		},
		{
			name: "zero is not an id",
			in:   []string{"summaryoutube", "0"},
			want: []string{"summaryoutube", "0"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteVideoShortcut(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteVideoShortcut(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
