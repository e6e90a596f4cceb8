// Package assets fetches screenshot binaries to durable local storage.
package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// Downloader fetches remote assets with bounded retries. A download that
// exhausts its attempts reports failure instead of erroring; the caller
// decides whether that is fatal.
type Downloader struct {
	httpClient  *http.Client
	maxAttempts int
	baseDelay   time.Duration
	sleep       func(ctx context.Context, d time.Duration) error
	log         *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Downloader) {
		d.httpClient = hc
	}
}

// WithMaxAttempts sets the attempt budget per download.
func WithMaxAttempts(n int) Option {
	return func(d *Downloader) {
		d.maxAttempts = n
	}
}

// WithBaseDelay sets the first backoff delay. Attempt n waits
// baseDelay * 2^n before retrying.
func WithBaseDelay(delay time.Duration) Option {
	return func(d *Downloader) {
		d.baseDelay = delay
	}
}

// WithSleep sets a custom sleep function (for testing).
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(d *Downloader) {
		d.sleep = sleep
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(d *Downloader) {
		d.log = log.With("component", "assets")
	}
}

// New creates a downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches sourceURL and writes the full byte stream to destPath,
// creating any needed directories. Returns true on success and false once
// all attempts are exhausted or the context is canceled.
func (d *Downloader) Download(ctx context.Context, sourceURL, destPath string) bool {
	for attempt := 0; attempt < d.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := d.baseDelay * (1 << (attempt - 1))
			if err := d.sleep(ctx, backoff); err != nil {
				return false
			}
		}

		err := d.fetch(ctx, sourceURL, destPath)
		if err == nil {
			if d.log != nil {
				d.log.Debug("asset downloaded", "url", sourceURL, "dest", destPath, "attempt", attempt+1)
			}
			return true
		}

		if d.log != nil {
			d.log.Warn("asset download attempt failed",
				"url", sourceURL, "attempt", attempt+1, "max_attempts", d.maxAttempts, "error", err)
		}
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

// fetch performs one download attempt. The file is written via a temp
// name and renamed into place so a failed attempt never leaves a partial
// asset at destPath.
func (d *Downloader) fetch(ctx context.Context, sourceURL, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create asset dir: %w", err)
	}

	tmpPath := destPath + ".partial"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
