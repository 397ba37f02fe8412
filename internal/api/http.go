package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lvminh/farmdiary/internal/models"
)

const (
	SeasonsPath = "/api/muavu"
	StagesPath  = "/api/giaidoan"
	TasksPath   = "/api/congviec"
	EntriesPath = "/api/nhatky"
	HealthzPath = "/api/ping"

	defaultHTTPTimeout = 10 * time.Second
)

// HTTPClient implements Client over the diary server's JSON endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrServer, resp.Status, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, HealthzPath, nil, nil)
}

func (c *HTTPClient) ListSeasons(ctx context.Context) ([]models.Season, error) {
	var out []models.Season
	if err := c.do(ctx, http.MethodGet, SeasonsPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListStages(ctx context.Context) ([]models.Stage, error) {
	var out []models.Stage
	if err := c.do(ctx, http.MethodGet, StagesPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	if err := c.do(ctx, http.MethodGet, TasksPath, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ListEntries(ctx context.Context, ownerID string) ([]models.TimelineEntry, error) {
	var out []models.TimelineEntry
	path := EntriesPath + "?uId=" + url.QueryEscape(ownerID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// wireEntry is the push shape: sync metadata is local bookkeeping and is
// stripped before an entry goes over the wire.
func wireEntry(e *models.TimelineEntry) *models.TimelineEntry {
	c := *e
	c.SyncStatus = ""
	c.Deleted = false
	c.PendingCreation = false
	c.PendingUpdate = false
	c.PendingDeletion = false
	return &c
}

func (c *HTTPClient) CreateEntry(ctx context.Context, e *models.TimelineEntry) (*models.TimelineEntry, error) {
	payload := wireEntry(e)
	if models.IsLocalID(payload.ID) {
		// The server assigns the real id.
		payload.ID = ""
	}
	var out models.TimelineEntry
	if err := c.do(ctx, http.MethodPost, EntriesPath, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateEntry(ctx context.Context, id string, e *models.TimelineEntry) (*models.TimelineEntry, error) {
	var out models.TimelineEntry
	if err := c.do(ctx, http.MethodPut, EntriesPath+"/"+url.PathEscape(id), wireEntry(e), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteEntry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, EntriesPath+"/"+url.PathEscape(id), nil, nil)
}
