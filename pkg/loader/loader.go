// Package loader fetches the survey table and the two boundary collections
// from local files or HTTP, concurrently.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/metrics"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
	"golang.org/x/sync/errgroup"
)

// Source names.
const (
	SourceRecords      = "records"
	SourceDistricts    = "districts"
	SourceSubDistricts = "subdistricts"
)

// Sources locates the three inputs. Each is a local path or an http(s) URL.
type Sources struct {
	Records      string `yaml:"records"`
	Districts    string `yaml:"districts"`
	SubDistricts string `yaml:"subdistricts"`
}

// Map returns the sources keyed by source name.
func (s Sources) Map() map[string]string {
	return map[string]string{
		SourceRecords:      s.Records,
		SourceDistricts:    s.Districts,
		SourceSubDistricts: s.SubDistricts,
	}
}

// Options controls parsing and HTTP fetching.
type Options struct {
	Format   survey.Format
	Names    geo.Names
	Client   *http.Client
	Attempts int           // HTTP attempts per source, 3 when zero
	Backoff  time.Duration // first retry waits 2*Backoff, 1s when zero
	Logger   *slog.Logger
}

// Data is the loaded input set.
type Data struct {
	Records      []survey.Record
	Districts    []geo.Feature
	SubDistricts []geo.Feature
}

// SourceError names the input that failed to load.
type SourceError struct {
	Source   string
	Location string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("load %s (%s): %v", e.Source, e.Location, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Load fetches and parses all three sources concurrently. It fails when
// any of them fails; the first error cancels the others.
func Load(ctx context.Context, src Sources, opts Options) (*Data, error) {
	if opts.Names == (geo.Names{}) {
		opts.Names = geo.DefaultNames()
	}

	var data Data
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return opts.load(ctx, SourceRecords, src.Records, func(b []byte) (n int, err error) {
			data.Records, err = survey.ReadCSV(bytes.NewReader(b), opts.Format)
			return len(data.Records), err
		})
	})
	g.Go(func() error {
		return opts.load(ctx, SourceDistricts, src.Districts, func(b []byte) (n int, err error) {
			data.Districts, err = geo.ParseFeatures(b, opts.Names)
			return len(data.Districts), err
		})
	})
	g.Go(func() error {
		return opts.load(ctx, SourceSubDistricts, src.SubDistricts, func(b []byte) (n int, err error) {
			data.SubDistricts, err = geo.ParseFeatures(b, opts.Names)
			return len(data.SubDistricts), err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &data, nil
}

func (o Options) load(ctx context.Context, name, loc string, parse func([]byte) (int, error)) error {
	start := time.Now()
	err := o.loadOne(ctx, name, loc, parse)
	metrics.LoadDurationMs.WithLabelValues(name).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.LoadsTotal.WithLabelValues(name, "error").Inc()
		return err
	}
	metrics.LoadsTotal.WithLabelValues(name, "ok").Inc()
	return nil
}

func (o Options) loadOne(ctx context.Context, name, loc string, parse func([]byte) (int, error)) error {
	if loc == "" {
		return &SourceError{Source: name, Err: fmt.Errorf("no location configured")}
	}
	b, err := o.fetch(ctx, loc)
	if err != nil {
		return &SourceError{Source: name, Location: loc, Err: err}
	}
	n, err := parse(b)
	if err != nil {
		return &SourceError{Source: name, Location: loc, Err: err}
	}
	if o.Logger != nil {
		o.Logger.Info("source loaded", "source", name, "location", loc, "bytes", len(b), "items", n)
	}
	return nil
}
