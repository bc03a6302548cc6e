package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAPIVersion  = "2024-01-01"
	defaultHTTPTimeout = 3 * time.Second
	maxResponseBytes   = 8 << 20

	pingQuery = `count(*[_type == 'product'])`
)

type HTTPConfig struct {
	BaseURL    string
	Dataset    string
	APIVersion string
	Token      string
	Timeout    time.Duration
}

// HTTPContentStore talks to a headless CMS query API:
//
//	GET {base}/v{version}/data/query/{dataset}?query=...
//
// which answers {"result": ...}.
type HTTPContentStore struct {
	BaseURL    string
	Dataset    string
	APIVersion string
	Token      string
	Client     *http.Client
}

func NewHTTPContentStore(cfg HTTPConfig) *HTTPContentStore {
	baseURL := cfg.BaseURL
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}

	version := cfg.APIVersion
	if version == "" {
		version = defaultAPIVersion
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &HTTPContentStore{
		BaseURL:    baseURL,
		Dataset:    cfg.Dataset,
		APIVersion: strings.TrimPrefix(version, "v"),
		Token:      cfg.Token,
		Client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPContentStore) Query(ctx context.Context) ([]Product, error) {
	raw, err := c.run(ctx, ProductQuery)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 {
		return nil, nil
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

func (c *HTTPContentStore) Ping(ctx context.Context) error {
	_, err := c.run(ctx, pingQuery)
	return err
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

func (c *HTTPContentStore) run(ctx context.Context, query string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?query=%s",
		c.BaseURL, c.APIVersion, url.PathEscape(c.Dataset), url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrContentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: status=%d", ErrContentBadStatus, resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return qr.Result, nil
}
