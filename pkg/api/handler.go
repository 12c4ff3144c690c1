package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/hazyhaar/slp-atlas/pkg/kit"
	"github.com/hazyhaar/slp-atlas/pkg/metrics"
	"github.com/hazyhaar/slp-atlas/pkg/session"
	"github.com/hazyhaar/slp-atlas/pkg/store"
	"github.com/mark3labs/mcp-go/server"
)

// Options configures the router. Every field is optional.
type Options struct {
	// Reload refetches the inputs and swaps them into the session.
	Reload func(context.Context) error
	// Store enables the audit history routes.
	Store  *store.DB
	Logger *slog.Logger
}

// NewRouter returns an http.Handler with all atlas API routes, the
// Prometheus exposition on /metrics and the MCP endpoint on /mcp.
func NewRouter(sess *session.Session, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Logging(opts.Logger, name)(ep)
	}

	h := &handler{
		sess:        sess,
		db:          opts.Store,
		getLevel:    wrap("get_level", getLevelEndpoint(sess)),
		setLevel:    wrap("set_level", setLevelEndpoint(sess)),
		aggregate:   wrap("aggregate", aggregateEndpoint(sess)),
		regions:     wrap("regions", regionsEndpoint(sess)),
		regionStats: wrap("region_stats", regionStatsEndpoint(sess)),
		hierarchy:   wrap("hierarchy", hierarchyEndpoint(sess)),
		verify:      wrap("verify", verifyEndpoint(sess)),
		matches:     wrap("matches", matchesEndpoint(sess)),
		reload:      wrap("reload", reloadEndpoint(sess, opts.Reload)),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	mux.HandleFunc("GET /v1/level", h.handleGetLevel)
	mux.HandleFunc("PUT /v1/level", h.handleSetLevel)
	mux.HandleFunc("GET /v1/aggregate", h.handleAggregate)
	mux.HandleFunc("GET /v1/regions", h.handleRegions)
	mux.HandleFunc("GET /v1/regions/{name}", h.handleRegionStats)
	mux.HandleFunc("GET /v1/hierarchy", h.handleHierarchy)
	mux.HandleFunc("GET /v1/verify", h.handleVerify)
	mux.HandleFunc("GET /v1/matches", h.handleMatches)
	mux.HandleFunc("GET /v1/reload", methodNotAllowed)
	mux.HandleFunc("POST /v1/reload", h.handleReload)
	if h.db != nil {
		mux.HandleFunc("GET /v1/runs", h.handleRuns)
		mux.HandleFunc("GET /v1/runs/{id}", h.handleRunViolations)
		mux.HandleFunc("GET /v1/diagnostics", h.handleDiagnostics)
		mux.HandleFunc("GET /v1/sources", h.handleSources)
	}
	mux.Handle("GET /metrics", metrics.Handler())
	mux.Handle("/mcp", server.NewStreamableHTTPServer(NewMCPServer(sess, opts.Logger)))

	return cors(requestID(mux))
}

type handler struct {
	sess *session.Session
	db   *store.DB

	getLevel    kit.Endpoint
	setLevel    kit.Endpoint
	aggregate   kit.Endpoint
	regions     kit.Endpoint
	regionStats kit.Endpoint
	hierarchy   kit.Endpoint
	verify      kit.Endpoint
	matches     kit.Endpoint
	reload      kit.Endpoint
}

// serve runs ep and writes its response or mapped error.
func serve(w http.ResponseWriter, r *http.Request, ep kit.Endpoint, req any) {
	resp, err := ep(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownLevel):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	case errors.Is(err, errReloadDisabled):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

// --- health ---

type healthResponse struct {
	Status string `json:"status"`
	session.Summary
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Summary: h.sess.Summary()})
}

// --- level ---

func (h *handler) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.getLevel, nil)
}

func (h *handler) handleSetLevel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 4*1024)
	var req levelReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	serve(w, r, h.setLevel, &req)
}

// --- data ---

func (h *handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.aggregate, &levelReq{Level: r.URL.Query().Get("level")})
}

func (h *handler) handleRegions(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.regions, &levelReq{Level: r.URL.Query().Get("level")})
}

func (h *handler) handleRegionStats(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing region name")
		return
	}
	serve(w, r, h.regionStats, &regionStatsReq{Level: r.URL.Query().Get("level"), Name: name})
}

func (h *handler) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.hierarchy, nil)
}

// --- audit ---

func (h *handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.verify, nil)
}

func (h *handler) handleMatches(w http.ResponseWriter, r *http.Request) {
	unmatched, _ := strconv.ParseBool(r.URL.Query().Get("unmatched"))
	serve(w, r, h.matches, &matchesReq{UnmatchedOnly: unmatched})
}

func (h *handler) handleReload(w http.ResponseWriter, r *http.Request) {
	serve(w, r, h.reload, nil)
}

// --- history ---

func (h *handler) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.db.Runs(queryLimit(r, 20))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (h *handler) handleRunViolations(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}
	vs, err := h.db.Violations(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"run": id, "violations": vs})
}

func (h *handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	entries, err := h.db.Diagnostics(r.URL.Query().Get("check"), queryLimit(r, 100))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"diagnostics": entries})
}

func (h *handler) handleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.db.ListSources()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

// --- helpers ---

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 || n > 1000 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(kit.WithRequestID(r.Context(), id)))
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
