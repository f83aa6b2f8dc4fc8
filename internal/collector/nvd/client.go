// Package nvd collects CVSS scores from the NVD CVE API and applies them to
// stored flaws. Collection only ever mutates flaw attributes; classification
// is reconciled afterwards through the workflow framework.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the NVD CVE API 2.0 endpoint
const DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

// pageSize is the maximum resultsPerPage the NVD API serves
const pageSize = 2000

// CVERecord holds the CVSS scores NVD publishes for one CVE. The combined
// fields are rendered in the stored "score/vector" form; the split fields
// feed the cvss_scores relation.
type CVERecord struct {
	CVEID string

	CVSS2       string
	CVSS2Score  float64
	CVSS2Vector string

	CVSS3       string
	CVSS3Score  float64
	CVSS3Vector string
}

// Client fetches CVE records from the NVD REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientOption is a functional option for configuring the Client
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint, mainly for testing
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithAPIKey sets the NVD API key, raising the rate limit
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates an NVD API client
func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// FetchCVE retrieves the record of a single CVE. A CVE unknown to NVD
// returns nil without error.
func (c *Client) FetchCVE(ctx context.Context, cveID string) (*CVERecord, error) {
	params := url.Values{}
	params.Set("cveId", cveID)

	records, _, err := c.fetchPage(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// FetchModifiedBetween retrieves all CVE records last modified within the
// given period, following pagination. The NVD API limits the period to 120
// days.
func (c *Client) FetchModifiedBetween(ctx context.Context, start, end time.Time) ([]CVERecord, error) {
	var all []CVERecord
	startIndex := 0

	for {
		params := url.Values{}
		params.Set("lastModStartDate", start.UTC().Format("2006-01-02T15:04:05"))
		params.Set("lastModEndDate", end.UTC().Format("2006-01-02T15:04:05"))
		params.Set("resultsPerPage", strconv.Itoa(pageSize))
		params.Set("startIndex", strconv.Itoa(startIndex))

		records, total, err := c.fetchPage(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)

		startIndex += pageSize
		if startIndex >= total {
			return all, nil
		}
	}
}

// apiResponse mirrors the subset of the NVD CVE API 2.0 response we read
type apiResponse struct {
	TotalResults    int `json:"totalResults"`
	Vulnerabilities []struct {
		CVE struct {
			ID      string `json:"id"`
			Metrics struct {
				CVSSMetricV31 []cvssMetric `json:"cvssMetricV31"`
				CVSSMetricV30 []cvssMetric `json:"cvssMetricV30"`
				CVSSMetricV2  []cvssMetric `json:"cvssMetricV2"`
			} `json:"metrics"`
		} `json:"cve"`
	} `json:"vulnerabilities"`
}

type cvssMetric struct {
	Type     string `json:"type"`
	CVSSData struct {
		VectorString string  `json:"vectorString"`
		BaseScore    float64 `json:"baseScore"`
	} `json:"cvssData"`
}

func (c *Client) fetchPage(ctx context.Context, params url.Values) ([]CVERecord, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build NVD request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("apiKey", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("NVD request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("NVD request failed with status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, 0, fmt.Errorf("failed to decode NVD response: %w", err)
	}

	records := make([]CVERecord, 0, len(body.Vulnerabilities))
	for _, v := range body.Vulnerabilities {
		metrics := v.CVE.Metrics

		cvss3Metrics := metrics.CVSSMetricV31
		if len(cvss3Metrics) == 0 {
			cvss3Metrics = metrics.CVSSMetricV30
		}
		cvss2 := primaryMetric(metrics.CVSSMetricV2)
		cvss3 := primaryMetric(cvss3Metrics)

		record := CVERecord{
			CVEID: v.CVE.ID,
			CVSS2: formatScore(cvss2),
			CVSS3: formatScore(cvss3),
		}
		if cvss2 != nil {
			record.CVSS2Score = cvss2.CVSSData.BaseScore
			record.CVSS2Vector = cvss2.CVSSData.VectorString
		}
		if cvss3 != nil {
			record.CVSS3Score = cvss3.CVSSData.BaseScore
			record.CVSS3Vector = cvss3.CVSSData.VectorString
		}
		records = append(records, record)
	}

	return records, body.TotalResults, nil
}

// primaryMetric picks the metric issued by NVD itself, falling back to the
// first one listed.
func primaryMetric(metrics []cvssMetric) *cvssMetric {
	if len(metrics) == 0 {
		return nil
	}
	for i := range metrics {
		if metrics[i].Type == "Primary" {
			return &metrics[i]
		}
	}
	return &metrics[0]
}

// formatScore renders a metric in the stored "score/vector" form
func formatScore(metric *cvssMetric) string {
	if metric == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s",
		strconv.FormatFloat(metric.CVSSData.BaseScore, 'f', 1, 64),
		metric.CVSSData.VectorString)
}
