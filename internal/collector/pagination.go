package collector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// FetchAllPages follows a paginated endpoint until its next link is
// null and returns the accumulated results in server order.
//
// Three response shapes are accepted: the standard envelope
// {count, next, previous, results}, a bare array, and a bare object
// (returned as a single-element slice). The first request carries
// page_size; follow-up requests use the absolute next URL verbatim.
func (c *Client) FetchAllPages(ctx context.Context, path string, query url.Values) ([]any, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("page_size", strconv.Itoa(c.pageSize))
	next := c.endpoint(path, query)

	var out []any
	for next != "" {
		doc, err := c.getJSON(ctx, next)
		if err != nil {
			return nil, err
		}

		switch v := doc.(type) {
		case []any:
			return append(out, v...), nil
		case map[string]any:
			results, hasResults := v["results"].([]any)
			_, hasNext := v["next"]
			if !hasResults || !hasNext {
				// Bare object, not an envelope.
				return append(out, v), nil
			}
			out = append(out, results...)
			next = ""
			if s, ok := v["next"].(string); ok && s != "" {
				next = s
			}
		default:
			return nil, fmt.Errorf("unexpected response shape %T from %s", doc, next)
		}
	}
	return out, nil
}
