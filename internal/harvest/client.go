// Package harvest talks to the ledger: it reads the projects and task
// assignments visible to the account and creates time entries.
package harvest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/christopherklint97/hourbridge/internal/catalog"
)

const DefaultBaseURL = "https://api.harvestapp.com/api/v2"

// APIError is a non-2xx response from the ledger.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("harvest API error (status %d): %s", e.StatusCode, truncate(e.Body, 200))
}

var backoff = func(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

type Client struct {
	creds      Credentials
	baseURL    string
	httpClient *http.Client
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
		logger: logger,
	}
}

// doRequest sends a request to an absolute URL. Server errors are only
// retried for GET; a POST may have been applied before the server failed.
func (c *Client) doRequest(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	c.logger.Debug("harvest API request", "method", method, "url", url)

	var resp *http.Response
	maxRetries := 3
	requestStart := time.Now()
	for attempt := 0; attempt <= maxRetries; attempt++ {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Harvest-Account-ID", c.creds.AccountID)
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
		req.Header.Set("User-Agent", c.creds.UserAgent)
		req.Header.Set("Content-Type", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries || ctx.Err() != nil {
				c.logger.Error("API request transport error", "method", method, "url", url, "error", err, "elapsed", time.Since(requestStart))
				return nil, fmt.Errorf("sending request: %w", err)
			}
			c.logger.Debug("API request transport error, retrying", "method", method, "url", url, "attempt", attempt+1, "error", err)
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		retryable := resp.StatusCode == http.StatusTooManyRequests ||
			(resp.StatusCode >= 500 && method == http.MethodGet)
		if retryable && attempt < maxRetries {
			resp.Body.Close()
			c.logger.Debug("API request retryable error", "method", method, "url", url, "status", resp.StatusCode, "attempt", attempt+1)
			if err := sleep(ctx, backoff(attempt)); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("harvest API response", "method", method, "url", url, "status", resp.StatusCode, "bytes", len(respBody), "elapsed", time.Since(requestStart))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("API request failed", "method", method, "url", url, "status", resp.StatusCode, "response", truncate(string(respBody), 200))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return respBody, nil
}

// list follows links.next from the first page of name and decodes every
// element of the name array into T.
func list[T any](ctx context.Context, c *Client, name string) ([]T, error) {
	var all []T
	next := c.baseURL + "/" + name
	for next != "" {
		data, err := c.doRequest(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", name, err)
		}

		var page map[string]json.RawMessage
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("parsing %s page: %w", name, err)
		}

		var items []T
		if err := json.Unmarshal(page[name], &items); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		all = append(all, items...)

		var l links
		if raw, ok := page["links"]; ok {
			if err := json.Unmarshal(raw, &l); err != nil {
				return nil, fmt.Errorf("parsing %s links: %w", name, err)
			}
		}
		next = ""
		if l.Next != nil {
			next = *l.Next
		}
	}
	return all, nil
}

// FetchCatalog builds catalog entries from every project and task
// assignment the account can see, ordered active first, then by name.
func (c *Client) FetchCatalog(ctx context.Context) ([]catalog.Project, error) {
	projects, err := list[project](ctx, c, "projects")
	if err != nil {
		return nil, err
	}
	assignments, err := list[taskAssignment](ctx, c, "task_assignments")
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*catalog.Project, len(projects))
	result := make([]catalog.Project, len(projects))
	for i, p := range projects {
		result[i] = catalog.Project{
			ID:     p.ID,
			Name:   p.Name,
			Active: p.IsActive,
			Client: catalog.Client{ID: p.Client.ID, Name: p.Client.Name},
			Code:   p.Code,
			Tasks:  make(map[int64]catalog.Task),
		}
		byID[p.ID] = &result[i]
	}

	for _, a := range assignments {
		p, ok := byID[a.Project.ID]
		if !ok {
			c.logger.Warn("task assignment for unknown project", "project", a.Project.ID, "task", a.Task.ID)
			continue
		}
		active := a.IsActive
		p.Tasks[a.Task.ID] = catalog.Task{Name: a.Task.Name, LinkActive: &active}
	}

	catalog.Sort(result)
	c.logger.Info("fetched ledger catalog", "projects", len(result), "task_assignments", len(assignments))
	return result, nil
}

func (c *Client) CreateTimeEntry(ctx context.Context, entry TimeEntryRequest) (*TimeEntry, error) {
	data, err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/time_entries", entry)
	if err != nil {
		return nil, fmt.Errorf("creating time entry: %w", err)
	}

	var created TimeEntry
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("parsing time entry response: %w", err)
	}

	c.logger.Debug("created time entry", "id", created.ID, "project", entry.ProjectID, "task", entry.TaskID, "date", entry.SpentDate)
	return &created, nil
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
