package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/tags/", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
