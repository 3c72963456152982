// Package fetch downloads and extracts B3 COTAHIST archives.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/logger"
)

// DefaultBaseURL serves the historical series archives.
const DefaultBaseURL = "https://bvmf.bmfbovespa.com.br/InstDados/SerHist"

// UserAgent is sent with every request; the B3 site rejects the Go default.
const UserAgent = "Chrome/120 Linux x86_64 AppleWebKit/537.36"

// Client downloads archives into <dir>/zip.
type Client struct {
	http    *http.Client
	baseURL string
	dir     string
}

// NewClient returns a Client for baseURL (DefaultBaseURL when empty) saving
// under dir. timeout bounds each whole request, body included.
func NewClient(baseURL, dir string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		dir:     dir,
	}
}

// ZipDir is where downloaded archives are stored.
func (c *Client) ZipDir() string { return filepath.Join(c.dir, "zip") }

// ExtractDir is where archive members are extracted.
func (c *Client) ExtractDir() string { return filepath.Join(c.dir, "extracted") }

// Download fetches archive name and returns the local path.
//
// Behavior:
//   - GET <baseURL>/<name> with the B3-accepted User-Agent.
//   - The body is written to a temp file and renamed to the upper-cased
//     name, so a partial download never looks complete.
//
// Returns:
//   - string: path of the saved archive.
//   - error: *apperr.TransientError for network failures, 5xx and 429
//     responses; a plain error for any other non-2xx status.
func (c *Client) Download(ctx context.Context, name string) (string, error) {
	url := c.baseURL + "/" + name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", &apperr.TransientError{Op: "download " + name, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return "", &apperr.TransientError{Op: "download " + name, Err: statusErr}
		}
		return "", statusErr
	}

	if err := os.MkdirAll(c.ZipDir(), 0o755); err != nil {
		return "", fmt.Errorf("create zip dir: %w", err)
	}
	dst := filepath.Join(c.ZipDir(), strings.ToUpper(name))
	tmp := dst + ".part"

	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", &apperr.TransientError{Op: "download " + name, Err: err}
		}
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", err
	}

	logger.L().Info().
		Str("archive", name).
		Int64("bytes", n).
		Dur("elapsed", time.Since(start)).
		Msg("Archive downloaded")
	return dst, nil
}

// Fetch downloads archive name and extracts it into ExtractDir.
func (c *Client) Fetch(ctx context.Context, name string) ([]string, error) {
	path, err := c.Download(ctx, name)
	if err != nil {
		return nil, err
	}
	return Unzip(path, c.ExtractDir())
}
