package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brk3/habitbot/internal/server"
	"github.com/brk3/habitbot/pkg/versioninfo"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(base string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    http.DefaultClient,
	}
}

func (c *Client) Version(ctx context.Context) (*versioninfo.VersionInfo, error) {
	var out versioninfo.VersionInfo
	if err := c.get(ctx, "/version", &out); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	return &out, nil
}

func (c *Client) Report(ctx context.Context, chatID int64, period string) (*server.ReportResponse, error) {
	path := fmt.Sprintf("/users/%d/report", chatID)
	if period != "" {
		path += "?period=" + url.QueryEscape(period)
	}
	var out server.ReportResponse
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("report for chat %d: %w", chatID, err)
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(res.Body).Decode(&body) == nil && body.Error != "" {
			return fmt.Errorf("%s: %s", res.Status, body.Error)
		}
		return fmt.Errorf("%s", res.Status)
	}
	return json.NewDecoder(res.Body).Decode(v)
}
