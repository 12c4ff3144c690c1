// Package session holds the loaded survey and boundary data, both
// aggregates and the active display level behind one lock.
package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hazyhaar/slp-atlas/pkg/aggregate"
	"github.com/hazyhaar/slp-atlas/pkg/diag"
	"github.com/hazyhaar/slp-atlas/pkg/geo"
	"github.com/hazyhaar/slp-atlas/pkg/loader"
	"github.com/hazyhaar/slp-atlas/pkg/match"
	"github.com/hazyhaar/slp-atlas/pkg/nested"
	"github.com/hazyhaar/slp-atlas/pkg/survey"
	"github.com/hazyhaar/slp-atlas/pkg/verify"
)

// Columns names the survey columns the session reads.
type Columns struct {
	District    string   `yaml:"district"`
	SubDistrict string   `yaml:"subdistrict"`
	Count       []string `yaml:"count"`
}

// DefaultColumns returns the column names of the language survey.
func DefaultColumns() Columns {
	return Columns{
		District:    "Localidade",
		SubDistrict: "DS",
		Count:       []string{"Fluência"},
	}
}

// withDefaults fills each empty field from DefaultColumns.
func (c Columns) withDefaults() Columns {
	def := DefaultColumns()
	if c.District == "" {
		c.District = def.District
	}
	if c.SubDistrict == "" {
		c.SubDistrict = def.SubDistrict
	}
	if len(c.Count) == 0 {
		c.Count = def.Count
	}
	return c
}

// Config is the fixed configuration of a session.
type Config struct {
	Columns    Columns
	Categories []Category
	Normalize  survey.Normalizer
	Sink       diag.Sink
	Logger     *slog.Logger
}

type state struct {
	data          *loader.Data
	byDistrict    aggregate.Aggregate
	bySubDistrict aggregate.Aggregate
	hierarchy     *nested.Node[geo.Feature]
	matches       []match.Result
	loadedAt      time.Time
}

// Session is safe for concurrent use.
type Session struct {
	cfg Config

	mu     sync.RWMutex
	st     *state
	active Level
}

// New builds a session over data. The active level starts at District.
func New(data *loader.Data, cfg Config) (*Session, error) {
	cfg.Columns = cfg.Columns.withDefaults()
	if cfg.Categories == nil {
		cfg.Categories = DefaultCategories()
	}
	if cfg.Normalize == nil {
		cfg.Normalize = survey.StripSpace
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{cfg: cfg, active: District}
	st, err := s.build(data)
	if err != nil {
		return nil, err
	}
	s.st = st
	return s, nil
}

func (s *Session) build(data *loader.Data) (*state, error) {
	cols := s.cfg.Columns
	byDistrict, err := aggregate.Build(data.Records, cols.District, cols.Count, s.cfg.Normalize)
	if err != nil {
		return nil, fmt.Errorf("aggregate by district: %w", err)
	}
	bySub, err := aggregate.Build(data.Records, cols.SubDistrict, cols.Count, s.cfg.Normalize)
	if err != nil {
		return nil, fmt.Errorf("aggregate by sub-district: %w", err)
	}
	matchCols := match.Columns{District: cols.District, SubDistrict: cols.SubDistrict}
	st := &state{
		data:          data,
		byDistrict:    byDistrict,
		bySubDistrict: bySub,
		hierarchy:     geo.Hierarchy(data.SubDistricts, s.cfg.Sink),
		matches:       match.Match(data.Records, matchCols, data.Districts, data.SubDistricts, s.cfg.Normalize, s.cfg.Sink),
		loadedAt:      time.Now(),
	}
	s.cfg.Logger.Debug("features with data",
		"districts", countWithData(s.regions(st, District)),
		"subdistricts", countWithData(s.regions(st, SubDistrict)),
	)
	return st, nil
}

// Reload rebuilds the session over new data and swaps it in. On error the
// current data stays active.
func (s *Session) Reload(data *loader.Data) error {
	st, err := s.build(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.st = st
	s.mu.Unlock()

	s.cfg.Logger.Info("session reloaded",
		"records", len(data.Records),
		"districts", len(data.Districts),
		"subdistricts", len(data.SubDistricts),
	)
	return nil
}

func (s *Session) snapshot() (*state, Level) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st, s.active
}

// SetActive switches the active display level.
func (s *Session) SetActive(level Level) error {
	if err := checkLevel(level); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = level
	s.mu.Unlock()
	return nil
}

// View is the aggregate and feature collection of one level.
type View struct {
	Level     Level
	Aggregate aggregate.Aggregate
	Features  []geo.Feature
}

// Active returns the view of the active level.
func (s *Session) Active() View {
	st, level := s.snapshot()
	return st.view(level)
}

// View returns the view of level.
func (s *Session) View(level Level) (View, error) {
	if err := checkLevel(level); err != nil {
		return View{}, err
	}
	st, _ := s.snapshot()
	return st.view(level), nil
}

func (st *state) view(level Level) View {
	if level == SubDistrict {
		return View{Level: level, Aggregate: st.bySubDistrict, Features: st.data.SubDistricts}
	}
	return View{Level: District, Aggregate: st.byDistrict, Features: st.data.Districts}
}

// Summary describes the loaded data.
type Summary struct {
	Records      int       `json:"records"`
	Districts    int       `json:"districts"`
	SubDistricts int       `json:"subdistricts"`
	Active       Level     `json:"active_level"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// Summary returns counts of the current data.
func (s *Session) Summary() Summary {
	st, level := s.snapshot()
	return Summary{
		Records:      len(st.data.Records),
		Districts:    len(st.data.Districts),
		SubDistricts: len(st.data.SubDistricts),
		Active:       level,
		LoadedAt:     st.loadedAt,
	}
}

// Hierarchy returns the district to sub-district tree.
func (s *Session) Hierarchy() *nested.Node[geo.Feature] {
	st, _ := s.snapshot()
	return st.hierarchy
}

// Verify runs every consistency check over the current data.
func (s *Session) Verify() verify.Report {
	st, _ := s.snapshot()
	return verify.Run(verify.Input{
		Records:           st.data.Records,
		DistrictColumn:    s.cfg.Columns.District,
		SubDistrictColumn: s.cfg.Columns.SubDistrict,
		CountColumns:      s.cfg.Columns.Count,
		ByDistrict:        st.byDistrict,
		BySubDistrict:     st.bySubDistrict,
		SubDistricts:      st.data.SubDistricts,
		Normalize:         s.cfg.Normalize,
	})
}

// Matches returns every record paired with its features. Matching runs
// once per load; unmatched records are reported to the configured sink
// at that time.
func (s *Session) Matches() []match.Result {
	st, _ := s.snapshot()
	return st.matches
}

// Records returns the loaded survey records.
func (s *Session) Records() []survey.Record {
	st, _ := s.snapshot()
	return st.data.Records
}
