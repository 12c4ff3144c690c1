package loader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultAttempts = 3

// IsRemote reports whether loc is fetched over HTTP.
func IsRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

// fetch reads a local path, or downloads an http(s) URL with retries and
// exponential backoff.
func (o Options) fetch(ctx context.Context, loc string) ([]byte, error) {
	if !IsRemote(loc) {
		data, err := os.ReadFile(loc)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		return data, nil
	}

	client := o.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	attempts := o.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	base := o.Backoff
	if base <= 0 {
		base = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			backoff := base << uint(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for %s", resp.StatusCode, loc)
			continue
		}

		var buf bytes.Buffer
		_, copyErr := io.Copy(&buf, resp.Body)
		resp.Body.Close()
		if copyErr != nil {
			lastErr = copyErr
			continue
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("download %s failed after %d attempts: %w", loc, attempts, lastErr)
}
