package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		call       func(*Client) (string, error)
		wantPath   string
		wantSource string
		wantURL    string
		wantStatus int
		wantErr    bool
	}{
		{
			name:     "avatar",
			status:   http.StatusOK,
			body:     `{"url":"https://cdn.example.com/a.png"}`,
			call:     func(c *Client) (string, error) { return c.GenerateAvatar(context.Background(), "a red fox") },
			wantPath: "/v1/avatars",
			wantURL:  "https://cdn.example.com/a.png",
		},
		{
			name:   "animation",
			status: http.StatusOK,
			body:   `{"url":"https://cdn.example.com/a.mp4"}`,
			call: func(c *Client) (string, error) {
				return c.GenerateAnimation(context.Background(), "waves", "https://cdn.example.com/a.png")
			},
			wantPath:   "/v1/animations",
			wantSource: "https://cdn.example.com/a.png",
			wantURL:    "https://cdn.example.com/a.mp4",
		},
		{
			name:       "upstream error",
			status:     http.StatusBadGateway,
			body:       "model overloaded",
			call:       func(c *Client) (string, error) { return c.GenerateAvatar(context.Background(), "x") },
			wantPath:   "/v1/avatars",
			wantStatus: http.StatusBadGateway,
			wantErr:    true,
		},
		{
			name:     "empty url",
			status:   http.StatusOK,
			body:     `{"url":""}`,
			call:     func(c *Client) (string, error) { return c.GenerateAvatar(context.Background(), "x") },
			wantPath: "/v1/avatars",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != tt.wantPath {
					t.Errorf("Expected path %s, got %s", tt.wantPath, r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer key" {
					t.Errorf("Expected bearer auth, got %q", got)
				}
				var req generateRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if req.SourceImageURL != tt.wantSource {
					t.Errorf("Expected source %q, got %q", tt.wantSource, req.SourceImageURL)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New(srv.URL, "key", 100, srv.Client())
			got, err := tt.call(c)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				var se StatusError
				if tt.wantStatus != 0 && (!errors.As(err, &se) || se.StatusCode != tt.wantStatus) {
					t.Errorf("Expected StatusError %d, got %v", tt.wantStatus, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tt.wantURL {
				t.Errorf("Expected %s, got %s", tt.wantURL, got)
			}
		})
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("GENERATOR_URL", "")
	if _, err := NewFromEnv(); !errors.Is(err, ErrDisabled) {
		t.Errorf("Expected ErrDisabled, got %v", err)
	}

	t.Setenv("GENERATOR_URL", "https://gen.example.com/")
	t.Setenv("GENERATOR_RPS", "nope")
	if _, err := NewFromEnv(); err == nil {
		t.Error("Expected an error for an invalid rps")
	}

	t.Setenv("GENERATOR_RPS", "5")
	c, err := NewFromEnv()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if c.baseURL != "https://gen.example.com" {
		t.Errorf("Expected trailing slash trimmed, got %s", c.baseURL)
	}
}
