package tui

import (
	"fmt"
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
	"github.com/koji0214/summaryoutube/internal/statusutil"

	"github.com/charmbracelet/bubbles/list"
)

type videoItem struct {
	video model.Video
}

func (i videoItem) FilterValue() string { return i.video.Title }

func (i videoItem) Title() string {
	title := strings.TrimSpace(i.video.Title)
	if title == "" {
		title = i.video.URL
	}
	if badge := statusutil.Badge(i.video.Status); badge != "" {
		title += " " + badge
	}
	return fmt.Sprintf("#%d %s", i.video.ID, title)
}

func (i videoItem) Description() string {
	var parts []string
	if ch := strings.TrimSpace(i.video.ChannelName); ch != "" {
		parts = append(parts, ch)
	}
	if len(i.video.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(i.video.Tags, " #"))
	}
	if len(parts) == 0 {
		return i.video.URL
	}
	return strings.Join(parts, "  ")
}

func videoItems(videos []model.Video) []list.Item {
	items := make([]list.Item, 0, len(videos))
	for _, v := range videos {
		items = append(items, videoItem{video: v})
	}
	return items
}

func newVideoList(width, height int) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	// Filtering happens on the server via the search view.
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

func (m *appModel) selectedVideo() (model.Video, bool) {
	it, ok := m.videos.SelectedItem().(videoItem)
	if !ok {
		return model.Video{}, false
	}
	return it.video, true
}

// syncItems copies the session's list into the list widget, keeping the cursor on the
// same video when it is still present.
func (m *appModel) syncItems() {
	var keepID int64
	if v, ok := m.selectedVideo(); ok {
		keepID = v.ID
	}
	videos := m.sess.Videos()
	m.videos.SetItems(videoItems(videos))
	for i, v := range videos {
		if v.ID == keepID {
			m.videos.Select(i)
			return
		}
	}
	if m.videos.Index() >= len(videos) && len(videos) > 0 {
		m.videos.Select(len(videos) - 1)
	}
}
