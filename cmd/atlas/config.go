package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/loader"
	"github.com/hazyhaar/slp-atlas/pkg/session"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
	"gopkg.in/yaml.v3"
)

type config struct {
	Addr     string   `yaml:"addr"`
	TLS      bool     `yaml:"tls"`
	CertFile string   `yaml:"cert_file"`
	KeyFile  string   `yaml:"key_file"`
	TLSHosts []string `yaml:"tls_hosts"` // SANs of the self-signed cert
	DB       string   `yaml:"db"`        // empty disables persistence

	Sources       loader.Sources     `yaml:"sources"`
	CSV           survey.Format      `yaml:"csv"`
	GeoNames      geo.Names          `yaml:"geo_names"`
	Columns       session.Columns    `yaml:"columns"`
	Categories    []session.Category `yaml:"categories"`
	Normalize     string             `yaml:"normalize"`
	FetchAttempts int                `yaml:"fetch_attempts"`
	LoadTimeout   time.Duration      `yaml:"load_timeout"`
	CheckInterval time.Duration      `yaml:"check_interval"` // 0 disables the source checker

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaultConfig() config {
	return config{
		Addr: ":8420",
		DB:   "atlas.db",
		Sources: loader.Sources{
			Records:      "data/df1.csv",
			Districts:    "geojson/gadm41_LKA_1.json",
			SubDistricts: "geojson/gadm41_LKA_2.json",
		},
		GeoNames:      geo.DefaultNames(),
		Columns:       session.DefaultColumns(),
		Categories:    session.DefaultCategories(),
		Normalize:     "strip_spaces",
		FetchAttempts: 3,
		LoadTimeout:   2 * time.Minute,
		CheckInterval: time.Hour,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// loadConfig reads path over the defaults, then applies environment
// overrides. found is false when the file does not exist.
func loadConfig(path string) (cfg config, found bool, err error) {
	cfg = defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		found = true
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, found, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, false, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	if len(cfg.Columns.Count) == 0 {
		return cfg, found, fmt.Errorf("config: columns.count must name at least one column")
	}
	return cfg, found, nil
}

func applyEnv(cfg *config) {
	for _, o := range []struct {
		env string
		dst *string
	}{
		{"ATLAS_ADDR", &cfg.Addr},
		{"ATLAS_DB", &cfg.DB},
		{"ATLAS_RECORDS", &cfg.Sources.Records},
		{"ATLAS_DISTRICTS", &cfg.Sources.Districts},
		{"ATLAS_SUBDISTRICTS", &cfg.Sources.SubDistricts},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"LOG_FORMAT", &cfg.LogFormat},
	} {
		if v, ok := os.LookupEnv(o.env); ok {
			*o.dst = strings.TrimSpace(v)
		}
	}
}
