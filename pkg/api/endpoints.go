package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/slp-atlas/pkg/aggregate"
	"github.com/hazyhaar/slp-atlas/pkg/kit"
	"github.com/hazyhaar/slp-atlas/pkg/match"
	"github.com/hazyhaar/slp-atlas/pkg/session"
)

// Shared request/response types used by both HTTP and MCP transports.

type levelReq struct {
	Level string `json:"level"`
}

type regionStatsReq struct {
	Level string
	Name  string
}

type matchesReq struct {
	UnmatchedOnly bool
}

type levelResponse struct {
	Level session.Level `json:"level"`
}

type aggregateResponse struct {
	Level     session.Level       `json:"level"`
	Aggregate aggregate.Aggregate `json:"aggregate"`
}

type regionsResponse struct {
	Level   session.Level    `json:"level"`
	Regions []session.Region `json:"regions"`
}

type hierarchyResponse struct {
	Districts map[string][]string `json:"districts"`
}

type matchEntry struct {
	Row         int    `json:"row"`
	District    string `json:"district,omitempty"`
	SubDistrict string `json:"subdistrict,omitempty"`
	Matched     bool   `json:"matched"`
}

type matchesResponse struct {
	Total     int          `json:"total"`
	Unmatched int          `json:"unmatched"`
	Matches   []matchEntry `json:"matches"`
}

// errNotFound marks lookups that found nothing; transports map it to 404.
var errNotFound = errors.New("not found")

// errReloadDisabled is returned when no reload function is configured.
var errReloadDisabled = errors.New("reload not configured")

// resolveLevel parses name, falling back to the active level when empty.
func resolveLevel(sess *session.Session, name string) (session.Level, error) {
	if name == "" {
		return sess.Active().Level, nil
	}
	return session.ParseLevel(name)
}

func getLevelEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return levelResponse{Level: sess.Active().Level}, nil
	}
}

func setLevelEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*levelReq)
		level, err := session.ParseLevel(req.Level)
		if err != nil {
			return nil, err
		}
		if err := sess.SetActive(level); err != nil {
			return nil, err
		}
		return levelResponse{Level: level}, nil
	}
}

func aggregateEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*levelReq)
		level, err := resolveLevel(sess, req.Level)
		if err != nil {
			return nil, err
		}
		v, err := sess.View(level)
		if err != nil {
			return nil, err
		}
		return aggregateResponse{Level: v.Level, Aggregate: v.Aggregate}, nil
	}
}

func regionsEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*levelReq)
		level, err := resolveLevel(sess, req.Level)
		if err != nil {
			return nil, err
		}
		regions, err := sess.Regions(level)
		if err != nil {
			return nil, err
		}
		return regionsResponse{Level: level, Regions: regions}, nil
	}
}

func regionStatsEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*regionStatsReq)
		if req.Name == "" {
			return nil, fmt.Errorf("missing region name")
		}
		level, err := resolveLevel(sess, req.Level)
		if err != nil {
			return nil, err
		}
		stats, ok := sess.Stats(level, req.Name)
		if !ok {
			return nil, fmt.Errorf("%w: no data for %s %q", errNotFound, level, req.Name)
		}
		return stats, nil
	}
}

func hierarchyEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return hierarchyResponse{Districts: sess.NameTree()}, nil
	}
}

func verifyEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return sess.Verify(), nil
	}
}

func matchesEndpoint(sess *session.Session) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*matchesReq)
		all := sess.Matches()
		results := all
		unmatched := match.Unmatched(all)
		if req.UnmatchedOnly {
			results = unmatched
		}

		entries := make([]matchEntry, 0, len(results))
		for _, r := range results {
			e := matchEntry{Row: r.Record.Row, Matched: r.Matched()}
			if r.District != nil {
				e.District = r.District.Coarse
			}
			if r.SubDistrict != nil {
				e.SubDistrict = r.SubDistrict.Fine
			}
			entries = append(entries, e)
		}
		return matchesResponse{
			Total:     len(all),
			Unmatched: len(unmatched),
			Matches:   entries,
		}, nil
	}
}

func reloadEndpoint(sess *session.Session, reload func(context.Context) error) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		if reload == nil {
			return nil, errReloadDisabled
		}
		if err := reload(ctx); err != nil {
			return nil, err
		}
		return sess.Summary(), nil
	}
}
