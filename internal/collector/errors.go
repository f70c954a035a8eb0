package collector

import (
	"errors"
	"fmt"
)

// ErrRateLimitExceeded is returned when a request keeps hitting 429 past
// the retry budget. The server-dictated waits were honored each time.
var ErrRateLimitExceeded = errors.New("rate limit retries exhausted")

// UpstreamError is a non-429 HTTP failure from the API.
type UpstreamError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("upstream %d at %s: %s", e.StatusCode, e.URL, body)
}
