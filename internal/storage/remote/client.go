package remote

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"taskmind/internal/models"
)

const tableName = "tasks"

// Client talks to a remote record-store service over HTTP. The service owns
// consistency and latency; this client treats every call as independently
// fallible and makes exactly one attempt per operation.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// New builds a record-store client for the given base URL. The API key is
// optional and sent as a bearer token when present.
func New(baseURL, apiKey string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Client{http: client, logger: logger}
}

// Close is a no-op; the underlying HTTP client holds no persistent resources.
func (c *Client) Close() error { return nil }

// EnsureSchema asks the record store to create the tasks table if it does
// not exist yet. The call is idempotent.
func (c *Client) EnsureSchema(ctx context.Context) error {
	payload := map[string]any{
		"table": tableName,
		"columns": []map[string]string{
			{"name": "id", "type": "string"},
			{"name": "title", "type": "string"},
			{"name": "description", "type": "string"},
			{"name": "category", "type": "string"},
			{"name": "priority", "type": "string"},
			{"name": "completed", "type": "boolean"},
			{"name": "created_at", "type": "timestamp"},
			{"name": "due_date", "type": "timestamp"},
			{"name": "owner", "type": "string"},
		},
		"if_not_exists": true,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post("/v1/schema")
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ensure schema: record store returned %s", resp.Status())
	}
	return nil
}

// List fetches the owner's tasks. The response body goes through
// normalizeList, the single point of tolerance for envelope ambiguity.
func (c *Client) List(ctx context.Context, owner string) ([]models.Task, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner).
		Get("/v1/records/" + tableName)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list tasks: record store returned %s", resp.Status())
	}
	return normalizeList(resp.Body()), nil
}

// Create persists a new task record.
func (c *Client) Create(ctx context.Context, t models.Task) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(fromTask(t)).
		Post("/v1/records/" + tableName)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("create task: record store returned %s", resp.Status())
	}
	return nil
}

// Update applies a partial field update to the owner's task.
func (c *Client) Update(ctx context.Context, owner, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner).
		SetBody(fields).
		Patch("/v1/records/" + tableName + "/" + id)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("update task: record store returned %s", resp.Status())
	}
	return nil
}

// Delete removes the owner's task by id.
func (c *Client) Delete(ctx context.Context, owner, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("owner", owner).
		Delete("/v1/records/" + tableName + "/" + id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete task: record store returned %s", resp.Status())
	}
	return nil
}
