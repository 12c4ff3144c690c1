package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/loader"
	"github.com/hazyhaar/slp-atlas/pkg/metrics"
	"github.com/hazyhaar/slp-atlas/pkg/session"
	"github.com/hazyhaar/slp-atlas/pkg/store"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
	"github.com/hazyhaar/slp-atlas/pkg/verify"
	"github.com/joho/godotenv"
)

// app is the state shared by the subcommands.
type app struct {
	cfg    config
	logger *slog.Logger
	db     *store.DB
	sink   diag.Sink
	sess   *session.Session
}

// setup reads .env and the config file, builds the logger and opens the
// store. It does not load data.
func setup(cfgPath string) (*app, error) {
	_ = godotenv.Load(".env")

	cfg, found, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if !found {
		logger.Info("no config file, using defaults", "path", cfgPath)
	}

	a := &app{cfg: cfg, logger: logger}
	sinks := []diag.Sink{diag.LogSink{Logger: logger}, metrics.Sink}
	if cfg.DB != "" {
		db, err := store.Open(cfg.DB)
		if err != nil {
			return nil, err
		}
		a.db = db
		sinks = append(sinks, db.Sink(logger))
	}
	a.sink = diag.Multi(sinks...)
	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) fetch(ctx context.Context) (*loader.Data, error) {
	if a.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.LoadTimeout)
		defer cancel()
	}
	return loader.Load(ctx, a.cfg.Sources, loader.Options{
		Format:   a.cfg.CSV,
		Names:    a.cfg.GeoNames,
		Attempts: a.cfg.FetchAttempts,
		Logger:   a.logger,
	})
}

// open loads the inputs, builds the session and audits it.
func (a *app) open(ctx context.Context) (verify.Report, error) {
	data, err := a.fetch(ctx)
	if err != nil {
		return verify.Report{}, err
	}
	sess, err := session.New(data, session.Config{
		Columns:    a.cfg.Columns,
		Categories: a.cfg.Categories,
		Normalize:  survey.GetNormalizer(a.cfg.Normalize),
		Sink:       a.sink,
		Logger:     a.logger,
	})
	if err != nil {
		return verify.Report{}, fmt.Errorf("build session: %w", err)
	}
	a.sess = sess
	a.logger.Info("data loaded",
		"records", len(data.Records),
		"districts", len(data.Districts),
		"subdistricts", len(data.SubDistricts),
	)
	return a.audit(), nil
}

// reload refetches the inputs and swaps them into the session.
func (a *app) reload(ctx context.Context) error {
	data, err := a.fetch(ctx)
	if err != nil {
		return err
	}
	if err := a.sess.Reload(data); err != nil {
		return err
	}
	a.audit()
	return nil
}

// audit verifies the current data and reports the outcome to the sinks,
// the metrics and the store.
func (a *app) audit() verify.Report {
	report := a.sess.Verify()
	report.Emit(a.sink)

	counts := make(map[string]int)
	for _, v := range report.Violations {
		counts[v.Check]++
	}
	metrics.ObserveAudit(report.Checks, counts)

	sum := a.sess.Summary()
	metrics.RecordsLoaded.Set(float64(sum.Records))
	metrics.FeaturesLoaded.WithLabelValues(string(session.District)).Set(float64(sum.Districts))
	metrics.FeaturesLoaded.WithLabelValues(string(session.SubDistrict)).Set(float64(sum.SubDistricts))

	if a.db != nil {
		if _, err := a.db.RecordRun(report, sum.Records); err != nil {
			a.logger.Error("record audit run", "error", err)
		}
	}

	if report.OK {
		a.logger.Info("verification passed", "checks", len(report.Checks))
	} else {
		a.logger.Warn("verification found violations", "violations", len(report.Violations))
	}
	return report
}
