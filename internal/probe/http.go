package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/cyclingdb/internal/domain/rider"
	"github.com/okian/cyclingdb/internal/domain/stats"
)

// HTTPClient wraps http.Client with a timeout and request counters.
type HTTPClient struct {
	client   *http.Client
	baseURL  string
	requests atomic.Int64
	failed   atomic.Int64
}

func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// get performs a GET and returns the body of a 200 response.
func (c *HTTPClient) get(ctx context.Context, path string, q url.Values) ([]byte, http.Header, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	c.requests.Add(1)
	resp, err := c.client.Do(req)
	if err != nil {
		c.failed.Add(1)
		return nil, nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.failed.Add(1)
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		c.failed.Add(1)
		return nil, nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, truncate(body))
	}
	return body, resp.Header, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	body, _, err := c.get(ctx, path, q)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

type searchPage struct {
	Total   int           `json:"total"`
	Offset  int           `json:"offset"`
	Limit   int           `json:"limit"`
	Riders  []rider.Rider `json:"riders"`
	Summary stats.Summary `json:"summary"`
	Overall stats.Summary `json:"overall"`
}

// searchAll pages through /riders and returns every matching rider.
func (c *HTTPClient) searchAll(ctx context.Context, q url.Values) (searchPage, error) {
	var all searchPage
	for offset := 0; ; {
		pq := cloneValues(q)
		pq.Set("offset", strconv.Itoa(offset))
		var page searchPage
		if err := c.getJSON(ctx, "/riders", pq, &page); err != nil {
			return all, err
		}
		if offset == 0 {
			all = page
			all.Riders = nil
		}
		all.Riders = append(all.Riders, page.Riders...)
		offset += len(page.Riders)
		if len(page.Riders) == 0 || offset >= page.Total {
			return all, nil
		}
	}
}

func cloneValues(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func truncate(b []byte) string {
	const maxLen = 200
	if len(b) > maxLen {
		return string(b[:maxLen]) + "..."
	}
	return string(b)
}
