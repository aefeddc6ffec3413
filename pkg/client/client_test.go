package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type testRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func (r *testRecord) Validate() error {
	if r.Name == "" {
		return errors.New("missing name")
	}
	return nil
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg := DefaultConfig("TestApp/1.0.0 (test@example.com)")
	cfg.BaseURL = baseURL
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      DefaultConfig("TestApp/1.0.0"),
			expectError: false,
		},
		{
			name: "empty user agent",
			config: Config{
				BaseURL: DefaultBaseURL,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "empty base url",
			config: Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name: "unsupported scheme",
			config: Config{
				BaseURL:   "ftp://pokeapi.co/api/v2",
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    `base url must be http or https (got "ftp://pokeapi.co/api/v2")`,
		},
		{
			name: "negative timeout",
			config: Config{
				BaseURL:   DefaultBaseURL,
				UserAgent: "TestApp/1.0.0",
				Timeout:   -time.Second,
			},
			expectError: true,
			errorMsg:    "timeout must be >= 0 (got -1s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got nil")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
			} else {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
					return
				}
				if client == nil {
					t.Error("Client is nil")
				}
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	userAgent := "TestApp/1.0.0"
	cfg := DefaultConfig(userAgent)

	if cfg.UserAgent != userAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, userAgent)
	}
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0 (no request timeout)", cfg.Timeout)
	}
}

func TestClassifyError(t *testing.T) {
	client := &Client{logger: zerolog.Nop()}

	tests := []struct {
		name       string
		statusCode int
		err        error
		expected   ErrorClass
	}{
		{"network error", 0, io.EOF, ErrorClassNetwork},
		{"client error 404", 404, nil, ErrorClassClient},
		{"client error 429", 429, nil, ErrorClassClient},
		{"server error 500", 500, nil, ErrorClassServer},
		{"server error 503", 503, nil, ErrorClassServer},
		{"redirect 302", 302, nil, ErrorClassUnexpected},
		{"success 200", 200, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *http.Response
			if tt.statusCode > 0 {
				resp = &http.Response{StatusCode: tt.statusCode}
			}

			result := client.classifyError(resp, tt.err)
			if result != tt.expected {
				t.Errorf("classifyError() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestGet_ResolvesRelativeAndAbsolute(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.RequestURI())
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/api/v2/")
	ctx := context.Background()

	resp, err := client.Get(ctx, "pokemon?limit=20&offset=0")
	if err != nil {
		t.Fatalf("Get(relative) failed: %v", err)
	}
	resp.Body.Close()

	resp, err = client.Get(ctx, server.URL+"/api/v2/ability/65/")
	if err != nil {
		t.Fatalf("Get(absolute) failed: %v", err)
	}
	resp.Body.Close()

	want := []string{"/api/v2/pokemon?limit=20&offset=0", "/api/v2/ability/65/"}
	if len(paths) != len(want) {
		t.Fatalf("requests = %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("request %d = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestDo_UserAgentSet(t *testing.T) {
	userAgentReceived := ""
	acceptReceived := ""
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgentReceived = r.Header.Get("User-Agent")
		acceptReceived = r.Header.Get("Accept")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	resp, err := client.Get(context.Background(), "/pokemon/1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	resp.Body.Close()

	if userAgentReceived != client.config.UserAgent {
		t.Errorf("User-Agent = %q, want %q", userAgentReceived, client.config.UserAgent)
	}
	if acceptReceived != "application/json" {
		t.Errorf("Accept = %q, want application/json", acceptReceived)
	}
}

func TestDo_NonSuccessIsFailure(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   ErrorClass
		notFound   bool
	}{
		{"not found", 404, ErrorClassClient, true},
		{"server error", 500, ErrorClassServer, false},
		{"bad gateway", 502, ErrorClassServer, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests++
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			resp, err := client.Get(context.Background(), "/pokemon/1")
			if resp != nil {
				t.Error("Expected nil response on failure")
			}

			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("Expected *UpstreamError, got %T (%v)", err, err)
			}
			if upErr.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", upErr.StatusCode, tt.statusCode)
			}
			if upErr.ErrorClass != tt.expected {
				t.Errorf("ErrorClass = %q, want %q", upErr.ErrorClass, tt.expected)
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound() = %v, want %v", IsNotFound(err), tt.notFound)
			}
			if requests != 1 {
				t.Errorf("requests = %d, want exactly 1 (no retry)", requests)
			}
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(t, baseURL)

	_, err := client.Get(context.Background(), "/pokemon/1")

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected *UpstreamError, got %T (%v)", err, err)
	}
	if upErr.ErrorClass != ErrorClassNetwork {
		t.Errorf("ErrorClass = %q, want %q", upErr.ErrorClass, ErrorClassNetwork)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := client.Get(ctx, "/pokemon/1")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		t.Error("Cancellation must not be reported as an upstream failure")
	}
}

func TestGetJSON(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantErr  bool
		wantKind DecodeKind
		wantName string
	}{
		{
			name:     "valid record",
			body:     `{"id": 1, "name": "bulbasaur"}`,
			wantName: "bulbasaur",
		},
		{
			name:     "malformed json",
			body:     `{"id": 1, "name": `,
			wantErr:  true,
			wantKind: DecodeKindSyntax,
		},
		{
			name:     "wrong field type",
			body:     `{"id": "one", "name": "bulbasaur"}`,
			wantErr:  true,
			wantKind: DecodeKindSyntax,
		},
		{
			name:     "shape validation fails",
			body:     `{"id": 1}`,
			wantErr:  true,
			wantKind: DecodeKindShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			var rec testRecord
			err := client.GetJSON(context.Background(), "/pokemon/1", &rec)

			if !tt.wantErr {
				if err != nil {
					t.Fatalf("GetJSON() error = %v", err)
				}
				if rec.Name != tt.wantName {
					t.Errorf("Name = %q, want %q", rec.Name, tt.wantName)
				}
				return
			}

			var decErr *DecodeError
			if !errors.As(err, &decErr) {
				t.Fatalf("Expected *DecodeError, got %T (%v)", err, err)
			}
			if decErr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", decErr.Kind, tt.wantKind)
			}
			if !strings.HasSuffix(decErr.URL, "/pokemon/1") {
				t.Errorf("URL = %q, want suffix /pokemon/1", decErr.URL)
			}
		})
	}
}

func TestResourceLabel(t *testing.T) {
	client := newTestClient(t, "https://pokeapi.co/api/v2")

	tests := []struct {
		target string
		want   string
	}{
		{"https://pokeapi.co/api/v2/pokemon/1/", "pokemon"},
		{"https://pokeapi.co/api/v2/pokemon?limit=300&offset=0", "pokemon"},
		{"https://pokeapi.co/api/v2/pokemon-species/bulbasaur", "pokemon-species"},
		{"https://pokeapi.co/api/v2/evolution-chain/1/", "evolution-chain"},
		{"https://pokeapi.co/api/v2/", "root"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, tt.target, nil)
			if got := client.resourceLabel(req.URL); got != tt.want {
				t.Errorf("resourceLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
