// Package psconstants syncs product-definition constants (UBI components
// per stream, special-consideration components) from the product
// definitions service into local lookup tables.
package psconstants

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"
)

// ProductDefinitions is the subset of the product-definition document the
// service consumes.
type ProductDefinitions struct {
	// UbiPackages maps a major RHEL stream version to its UBI components
	UbiPackages map[string][]string `yaml:"ubi_packages"`

	// SpecialConsiderationPackages lists components needing special
	// consideration during triage
	SpecialConsiderationPackages []string `yaml:"special_consideration_packages"`
}

// Client fetches the product-definition document over HTTP.
type Client struct {
	url        string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a product-definitions client for the given URL
func NewClient(definitionsURL string, opts ...ClientOption) *Client {
	client := &Client{
		url:        definitionsURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// Fetch retrieves and parses the product-definition document
func (c *Client) Fetch(ctx context.Context) (*ProductDefinitions, error) {
	params := url.Values{}
	params.Set("job", "build")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build product-definitions request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("product-definitions request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product-definitions request failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read product-definitions response: %w", err)
	}

	var definitions ProductDefinitions
	if err := yaml.Unmarshal(body, &definitions); err != nil {
		return nil, fmt.Errorf("failed to parse product-definitions YAML: %w", err)
	}

	return &definitions, nil
}
