package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/koji0214/summaryoutube/internal/api"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// videoErr turns the backend's 404 into the CLI's not-found error.
func videoErr(id int64, err error) error {
	if errors.Is(err, api.ErrNotFound) {
		return errNotFound("video", strconv.FormatInt(id, 10))
	}
	return err
}

func parseVideoID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid video id: %q", s)
	}
	return id, nil
}
