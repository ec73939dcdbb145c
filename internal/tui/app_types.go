package tui

import (
	"github.com/koji0214/summaryoutube/internal/model"
)

type view int

const (
	viewList view = iota
	viewDetail
	viewForm
	viewSearch
)

func viewToString(v view) string {
	switch v {
	case viewList:
		return "list"
	case viewDetail:
		return "detail"
	case viewForm:
		return "form"
	case viewSearch:
		return "search"
	default:
		return "unknown"
	}
}

// listLoadedMsg reports a finished session fetch (load, refresh, search or reset).
type listLoadedMsg struct {
	op  string
	err error
}

type mutationDoneMsg struct {
	op    string
	id    int64
	video model.Video
	err   error
}

type flashDoneMsg struct{ seq int }

// Detail messages carry the seq of the detail view that requested them. A message
// whose seq no longer matches the open view is dropped.
type detailLoadedMsg struct {
	seq           int
	video         model.Video
	transcript    string
	transcriptErr error
	err           error
}

type pollTickMsg struct{ seq int }

type pollResultMsg struct {
	seq   int
	video model.Video
	err   error
}

type transcriptMsg struct {
	seq  int
	text string
	err  error
}
