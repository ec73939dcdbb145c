package statusutil

import (
	"fmt"
	"strings"

	"github.com/koji0214/summaryoutube/internal/model"
)

func NormalizeStatus(s string) (model.Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "queued":
		return model.StatusPending, nil
	case "processing", "running":
		return model.StatusProcessing, nil
	case "completed", "complete", "done":
		return model.StatusCompleted, nil
	case "failed", "error":
		return model.StatusFailed, nil
	case "":
		return "", fmt.Errorf("invalid status: empty")
	default:
		return "", fmt.Errorf("invalid status: %q", s)
	}
}

// NormalizeSortKey accepts wire names (channel_name) and the camelCase names used in the
// search UI (channelName), plus a few short aliases.
func NormalizeSortKey(s string) (model.SortKey, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.ReplaceAll(k, "-", "_")
	switch k {
	case "":
		return model.DefaultSortKey, nil
	case "id":
		return model.SortByID, nil
	case "title":
		return model.SortByTitle, nil
	case "channel_name", "channelname", "channel":
		return model.SortByChannelName, nil
	case "created_at", "createdat", "created":
		return model.SortByCreatedAt, nil
	case "updated_at", "updatedat", "updated":
		return model.SortByUpdatedAt, nil
	default:
		return "", fmt.Errorf("invalid sort key: %q (want one of id, title, channel_name, created_at, updated_at)", s)
	}
}

func NormalizeSortOrder(s string) (model.SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return model.DefaultSortOrder, nil
	case "asc", "ascending":
		return model.SortAsc, nil
	case "desc", "descending":
		return model.SortDesc, nil
	default:
		return "", fmt.Errorf("invalid sort order: %q (want asc or desc)", s)
	}
}

// Badge is the short status label shown in lists.
func Badge(s model.Status) string {
	switch s {
	case model.StatusPending:
		return "[queued]"
	case model.StatusProcessing:
		return "[transcribing]"
	case model.StatusFailed:
		return "[failed]"
	default:
		return ""
	}
}
