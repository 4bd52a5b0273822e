package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pmsync/internal"
)

const attempts = 3

type rerunRequest struct {
	BuildingID string `json:"building_id"`
}

// Client calls the analysis service that recomputes change-point models and savings
// for a building.
type Client struct {
	client  *http.Client
	url     string
	token   string
	backoff time.Duration
	logger  internal.LogHandler
}

func New(url, token string) *Client {
	return &Client{
		url:     url,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
		backoff: 5 * time.Second,
	}
}

func (c *Client) SetLogger(logger internal.LogHandler) {
	c.logger = logger
}

// Rerun asks the service to recompute the analyses of the building, retrying failed
// attempts with a growing pause.
func (c *Client) Rerun(ctx context.Context, buildingID string) error {
	body, err := json.Marshal(rerunRequest{BuildingID: buildingID})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	endpoint := fmt.Sprintf("/buildings/%s/rerun", buildingID)
	for attempt := 0; attempt < attempts; attempt++ {
		if err = c.doRequest(ctx, endpoint, body); err == nil {
			return nil
		}
		if c.logger != nil {
			c.logger.Warn(fmt.Sprintf("analysis: %s: %v (attempt %d)", endpoint, err, attempt+1))
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.backoff):
		}
	}
	return err
}

func (c *Client) doRequest(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Token "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("received status %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}
	return nil
}
