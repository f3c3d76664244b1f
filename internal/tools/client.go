// Package tools implements the HTTP client for the remote tool server.
//
// The server exposes namespaced tools:
//
//	GET  /list_tools/{namespace}       → list of tool names
//	GET  /tool/{namespace}/{tool}      → tool descriptor
//	POST /use_tool/{namespace}/{tool}  → invoke with a JSON argument body
//	GET  /healthz                      → server health and version
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// MinServerVersion is the oldest tool-server release this client speaks to.
const MinServerVersion = ">= 0.3.0"

// Client talks to a remote tool server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	minVersion *semver.Constraints

	// optErr holds the first error produced while applying options,
	// surfaced by NewClient.
	optErr error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (e.g. for tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithMinServerVersion overrides the minimum server version constraint.
// A malformed constraint makes NewClient fail.
func WithMinServerVersion(constraint string) Option {
	return func(c *Client) {
		parsed, err := semver.NewConstraint(constraint)
		if err != nil {
			c.optErr = fmt.Errorf("parsing version constraint %q: %w", constraint, err)
			return
		}

		c.minVersion = parsed
	}
}

// NewClient creates a tool-server client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.ParseRequestURI(baseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid server URL %q: must be http(s) with a host", baseURL)
	}

	minVersion, err := semver.NewConstraint(MinServerVersion)
	if err != nil {
		return nil, fmt.Errorf("parsing version constraint: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
		minVersion: minVersion,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.optErr != nil {
		return nil, c.optErr
	}

	return c, nil
}

// StatusError reports an unexpected HTTP status from the tool server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("tool server returned status %d", e.StatusCode)
	}

	return fmt.Sprintf("tool server returned status %d: %s", e.StatusCode, e.Body)
}

// ListTools returns the names of all tools available in a namespace.
func (c *Client) ListTools(ctx context.Context, namespace string) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, fmt.Sprintf("/list_tools/%s", url.PathEscape(namespace)), &names); err != nil {
		return nil, fmt.Errorf("listing tools in %q: %w", namespace, err)
	}

	return names, nil
}

// DescribeTool fetches the descriptor of a single tool.
func (c *Client) DescribeTool(ctx context.Context, namespace, name string) (*Descriptor, error) {
	var d Descriptor

	path := fmt.Sprintf("/tool/%s/%s", url.PathEscape(namespace), url.PathEscape(name))
	if err := c.getJSON(ctx, path, &d); err != nil {
		return nil, fmt.Errorf("describing tool %q: %w", name, err)
	}

	return &d, nil
}

// Invoke calls a tool with positional-style args and keyword-style kwargs
// and returns the raw JSON result unchanged.
func (c *Client) Invoke(ctx context.Context, namespace, name string, args, kwargs map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(invokeRequest{Args: args, Kwargs: kwargs})
	if err != nil {
		return nil, fmt.Errorf("marshaling arguments: %w", err)
	}

	path := fmt.Sprintf("/use_tool/%s/%s", url.PathEscape(namespace), url.PathEscape(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("invoking tool",
		slog.String("namespace", namespace),
		slog.String("tool", name),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoking tool %q: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return json.RawMessage(data), nil
}

// Health reports the server's health and version.
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	var h HealthInfo
	if err := c.getJSON(ctx, "/healthz", &h); err != nil {
		return nil, fmt.Errorf("checking server health: %w", err)
	}

	return &h, nil
}

// CheckCompatibility verifies the server version satisfies the client's
// minimum version constraint.
func (c *Client) CheckCompatibility(ctx context.Context) error {
	h, err := c.Health(ctx)
	if err != nil {
		return err
	}

	v, err := semver.NewVersion(h.Version)
	if err != nil {
		return fmt.Errorf("server reported unparsable version %q: %w", h.Version, err)
	}

	if !c.minVersion.Check(v) {
		return fmt.Errorf("server version %s does not satisfy %s", h.Version, c.minVersion)
	}

	return nil
}

// getJSON issues a GET request and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// invokeRequest is the JSON body of a tool invocation.
type invokeRequest struct {
	Args   map[string]any `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

// HealthInfo is the /healthz response.
type HealthInfo struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
