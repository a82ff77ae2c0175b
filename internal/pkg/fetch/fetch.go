package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var (
	// ErrUnexpectedStatus is returned for any non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected status code")
	// ErrTooLarge is returned when the body exceeds Config.MaxBytes.
	ErrTooLarge = errors.New("response body too large")
)

// Config holds configuration for the image byte fetcher.
type Config struct {
	Timeout  time.Duration // Per request timeout
	MaxBytes int64         // Largest body accepted, 0 disables the limit
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		MaxBytes: 16 << 20,
	}
}

// Client downloads remote image bytes with HTTP GET.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new fetch client.
func NewClient(config Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Fetch returns the body of url.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if c.config.MaxBytes > 0 {
		// one extra byte tells an exact-size body apart from an oversized one
		body = io.LimitReader(resp.Body, c.config.MaxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if c.config.MaxBytes > 0 && int64(len(data)) > c.config.MaxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, c.config.MaxBytes)
	}
	return data, nil
}
