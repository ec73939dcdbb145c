package model

type SortKey string

const (
	SortByID          SortKey = "id"
	SortByTitle       SortKey = "title"
	SortByChannelName SortKey = "channel_name"
	SortByCreatedAt   SortKey = "created_at"
	SortByUpdatedAt   SortKey = "updated_at"
)

// SortKeys lists every key the backend accepts, in display order.
var SortKeys = []SortKey{SortByID, SortByTitle, SortByChannelName, SortByCreatedAt, SortByUpdatedAt}

func (k SortKey) Valid() bool {
	for _, x := range SortKeys {
		if x == k {
			return true
		}
	}
	return false
}

func (k SortKey) Label() string {
	switch k {
	case SortByID:
		return "id"
	case SortByTitle:
		return "title"
	case SortByChannelName:
		return "channel"
	case SortByCreatedAt:
		return "created"
	case SortByUpdatedAt:
		return "updated"
	default:
		return string(k)
	}
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool { return o == SortAsc || o == SortDesc }

func (o SortOrder) Flip() SortOrder {
	if o == SortDesc {
		return SortAsc
	}
	return SortDesc
}

const (
	DefaultSortKey   = SortByID
	DefaultSortOrder = SortAsc
)
