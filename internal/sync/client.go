package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client pushes file changes to the sync server.
//
// The server accepts:
//
//	POST   /update-file/  — multipart body with a "filepath" field and a
//	                        "file" part holding the content
//	DELETE /delete-file/  — "filepath" query parameter
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a sync client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("sync server URL must not be empty")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}, nil
}

// UpdateFile uploads the file at localPath under the remote path relPath.
func (c *Client) UpdateFile(ctx context.Context, relPath, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening %q: %w", localPath, err)
	}
	defer f.Close()

	return c.updateFrom(ctx, relPath, f)
}

// updateFrom uploads content as relPath via a multipart request.
func (c *Client) updateFrom(ctx context.Context, relPath string, content io.Reader) error {
	body := &strings.Builder{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("filepath", relPath); err != nil {
		return fmt.Errorf("writing filepath field: %w", err)
	}

	part, err := mw.CreateFormFile("file", relPath)
	if err != nil {
		return fmt.Errorf("creating file part: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return fmt.Errorf("reading content for %q: %w", relPath, err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalizing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update-file/", strings.NewReader(body.String()))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading %q: %w", relPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("uploading %q: server returned status %d: %s",
			relPath, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.logger.Debug("file uploaded", slog.String("path", relPath))

	return nil
}

// DeleteFile removes the remote file at relPath.
func (c *Client) DeleteFile(ctx context.Context, relPath string) error {
	u := c.baseURL + "/delete-file/?filepath=" + url.QueryEscape(relPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deleting %q: %w", relPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("deleting %q: server returned status %d: %s",
			relPath, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	c.logger.Debug("file deleted", slog.String("path", relPath))

	return nil
}
