// Package toggl downloads detailed time reports from the tracker.
package toggl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/christopherklint97/hourbridge/internal/worklog"
)

const DefaultBaseURL = "https://api.track.toggl.com/reports/api/v2"

// ErrInvalidCredentials is returned when the tracker rejects the API token.
var ErrInvalidCredentials = errors.New("invalid toggl credentials")

var backoff = func(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
	pages      *rate.Limiter
	logger     *slog.Logger
}

func NewClient(creds Credentials, baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		creds:   creds,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// The reports API allows about one request per second.
		pages:  rate.NewLimiter(rate.Every(time.Second), 1),
		logger: logger,
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.baseURL + path + "?" + query.Encode()

	c.logger.Debug("toggl API request", "path", path, "page", query.Get("page"))

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.pages.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.SetBasicAuth(c.creds.APIToken, "api_token")
		req.Header.Set("Accept", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				c.logger.Error("API request transport error", "path", path, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "path", path, "attempt", attempt+1, "error", err)
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				c.logger.Error("API request failed after retries", "path", path, "status", resp.StatusCode, "attempts", maxRetries+1, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("API returned status %d after %d retries", resp.StatusCode, maxRetries)
			}
			c.logger.Debug("API request retryable error", "path", path, "status", resp.StatusCode, "attempt", attempt+1)
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("toggl API response", "path", path, "status", resp.StatusCode, "bytes", len(body), "elapsed", time.Since(requestStart))

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "path", path, "status", resp.StatusCode, "response", truncate(string(body), 200))
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

// FetchDetails downloads every detailed report row between start and end,
// both inclusive dates. params are added to the query; the workspace, date
// range, user agent and page are always set by the client.
func (c *Client) FetchDetails(ctx context.Context, start, end time.Time, params map[string]string) ([]worklog.RawRecord, error) {
	if c.creds.WorkspaceID == "" {
		return nil, fmt.Errorf("workspace ID is empty, set workspace_id in config or TOGGL_WORKSPACE_ID")
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("workspace_id", c.creds.WorkspaceID)
	query.Set("since", start.Format(worklog.DayLayout))
	query.Set("until", end.Format(worklog.DayLayout))
	query.Set("user_agent", c.creds.UserAgent)

	var records []worklog.RawRecord
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))
		data, err := c.get(ctx, "/details", query)
		if err != nil {
			return nil, fmt.Errorf("fetching report page %d: %w", page, err)
		}

		var resp detailsPage
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, fmt.Errorf("parsing report page %d: %w", page, err)
		}

		for _, e := range resp.Data {
			records = append(records, e.Record())
		}

		if len(records) >= resp.TotalCount || len(resp.Data) == 0 {
			break
		}
	}

	c.logger.Info("downloaded tracker report", "since", query.Get("since"), "until", query.Get("until"), "records", len(records))
	return records, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
