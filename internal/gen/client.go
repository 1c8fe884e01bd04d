// internal/gen/client.go
// Package gen provides a client for the external generative content
// service: prompt-driven title/description suggestions, thumbnail image
// generation, and campaign analytics figures.
package gen

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Metadata is a suggested title and description for a prompt.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Analytics holds the figures the service computes for a campaign.
type Analytics struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Skips       int64   `json:"skips"`
	ClickRate   float64 `json:"clickRate"`
}

// Service is the generative collaborator contract: fire, await,
// resolve-or-reject. The core never depends on its timing.
type Service interface {
	SuggestMetadata(ctx context.Context, prompt string) (Metadata, error)
	GenerateThumbnail(ctx context.Context, prompt string) (string, error)
	CampaignAnalytics(ctx context.Context, campaignID string) (Analytics, error)
}

// Client talks to an HTTP generative service.
type Client struct {
	base string
	hc   *http.Client
}

// New creates a generative service client with request timeouts suited to
// interactive use.
func New(baseURL string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: 2 * time.Second}).DialContext,
	}
	return &Client{
		base: baseURL,
		hc:   &http.Client{Transport: transport, Timeout: 15 * time.Second},
	}
}

// SuggestMetadata asks the service for a title and description.
func (c *Client) SuggestMetadata(ctx context.Context, prompt string) (Metadata, error) {
	var out Metadata
	err := c.get(ctx, "/v1/suggest", url.Values{"prompt": {prompt}}, &out)
	return out, err
}

// GenerateThumbnail asks the service for an image and returns its URL.
func (c *Client) GenerateThumbnail(ctx context.Context, prompt string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := c.get(ctx, "/v1/image", url.Values{"prompt": {prompt}}, &out)
	return out.URL, err
}

// CampaignAnalytics fetches delivery figures for a campaign.
func (c *Client) CampaignAnalytics(ctx context.Context, campaignID string) (Analytics, error) {
	var out Analytics
	err := c.get(ctx, "/v1/analytics", url.Values{"campaign": {campaignID}}, &out)
	return out, err
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u, err := url.Parse(c.base)
	if err != nil {
		return fmt.Errorf("invalid generative service URL: %w", err)
	}
	u.Path = path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generative service request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Noop is the fallback used when no generative service is configured. Every
// call reports the service as unavailable.
type Noop struct{}

func (Noop) SuggestMetadata(ctx context.Context, prompt string) (Metadata, error) {
	return Metadata{}, fmt.Errorf("generative service not configured")
}

func (Noop) GenerateThumbnail(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("generative service not configured")
}

func (Noop) CampaignAnalytics(ctx context.Context, campaignID string) (Analytics, error) {
	return Analytics{}, fmt.Errorf("generative service not configured")
}
