package loader

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/metrics"
	"github.com/hazyhaar/slp-atlas/pkg/store"
)

// Checker periodically probes every configured source location and
// persists the result.
type Checker struct {
	db       *store.DB
	logger   *slog.Logger
	interval time.Duration
	client   *http.Client
}

// NewChecker creates a Checker running every interval.
func NewChecker(db *store.DB, logger *slog.Logger, interval time.Duration) *Checker {
	return &Checker{
		db:       db,
		logger:   logger,
		interval: interval,
		client: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Start runs an immediate check then repeats every interval until ctx is cancelled.
func (c *Checker) Start(ctx context.Context) {
	c.CheckAll(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.CheckAll(ctx)
		}
	}
}

// CheckAll probes every source and persists the result. Remote sources
// get a HEAD request; local ones a stat. It returns the number of
// sources that are unavailable.
func (c *Checker) CheckAll(ctx context.Context) int {
	sources, err := c.db.ListSources()
	if err != nil {
		c.logger.Error("source check: list sources", "error", err)
		return 0
	}

	var ok, failed int
	for _, src := range sources {
		if ctx.Err() != nil {
			return failed
		}

		status, checkErr := c.checkOne(ctx, src.Location)
		errMsg := ""
		if checkErr != nil {
			errMsg = checkErr.Error()
		}
		if err := c.db.UpdateCheck(src.Name, status, errMsg); err != nil {
			c.logger.Error("source check: update", "source", src.Name, "error", err)
		}

		if status >= 200 && status < 400 {
			ok++
			metrics.SourceUp.WithLabelValues(src.Name).Set(1)
		} else {
			failed++
			metrics.SourceUp.WithLabelValues(src.Name).Set(0)
			c.logger.Warn("source unavailable",
				"source", src.Name,
				"location", src.Location,
				"status", status,
				"error", errMsg,
			)
		}
	}

	c.logger.Info("source check complete", "total", ok+failed, "ok", ok, "failed", failed)
	return failed
}

// checkOne returns an HTTP status for loc. Local files report 200 when
// readable. On error, status is 0.
func (c *Checker) checkOne(ctx context.Context, loc string) (int, error) {
	if !IsRemote(loc) {
		info, err := os.Stat(loc)
		if err != nil {
			return 0, err
		}
		if info.IsDir() {
			return 0, fmt.Errorf("%s is a directory", loc)
		}
		return http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, loc, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HEAD %s: %w", loc, err)
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}
