// Package generator talks to the external media generation service that turns
// prompts into avatar images and animation videos.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

var ErrDisabled = errors.New("generator: GENERATOR_URL not set")

const (
	defaultRPS   = 2
	maxErrorBody = 4 << 10
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewFromEnv builds a client from GENERATOR_URL, GENERATOR_API_KEY and
// GENERATOR_RPS.
func NewFromEnv() (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv(config.ENV_KEY_GENERATOR_URL)), "/")
	if base == "" {
		return nil, ErrDisabled
	}

	rps := float64(defaultRPS)
	if raw := strings.TrimSpace(os.Getenv(config.ENV_KEY_GENERATOR_RPS)); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("generator: invalid %s %q", config.ENV_KEY_GENERATOR_RPS, raw)
		}
		rps = parsed
	}

	return New(base, os.Getenv(config.ENV_KEY_GENERATOR_API_KEY), rps, nil), nil
}

// New uses an otel-instrumented transport unless httpClient is given.
func New(baseURL, apiKey string, rps float64, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   2 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	SourceImageURL string `json:"source_image_url,omitempty"`
}

type generateResponse struct {
	URL string `json:"url"`
}

// StatusError is a non-2xx answer from the generation service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("generator: unexpected status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) GenerateAvatar(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, "/v1/avatars", generateRequest{Prompt: prompt})
}

func (c *Client) GenerateAnimation(ctx context.Context, prompt string, sourceImageURL string) (string, error) {
	return c.generate(ctx, "/v1/animations", generateRequest{
		Prompt:         prompt,
		SourceImageURL: sourceImageURL,
	})
}

func (c *Client) generate(ctx context.Context, path string, body generateRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator: request %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return "", StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var out generateResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("generator: decode response: %w", err)
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", errors.New("generator: response has no url")
	}
	return out.URL, nil
}
