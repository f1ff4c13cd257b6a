// Package httpapi is the JSON/HTTP surface. Handlers stay thin: decode,
// permission check, delegate to the domain service, map errors to statuses.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"socialloom.io/internal/asset"
	"socialloom.io/internal/audit"
	"socialloom.io/internal/briefing"
	"socialloom.io/internal/generation"
	"socialloom.io/internal/identity"
	"socialloom.io/internal/obs"
	"socialloom.io/internal/workflow"
)

// ReadyProbe reports whether the service can take traffic. With no database
// configured the in-memory store is always ready.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options carries the request-shaping knobs the middleware chain needs.
type Options struct {
	MaxBodyBytes int64
	RateBurst    int
	RatePerSec   int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	log        zerolog.Logger
	identity   *identity.Service
	briefings  *briefing.Service
	sessions   *generation.Service
	workflows  *workflow.Engine
	assets     *asset.Generator
	audit      *audit.Logger
	readyProbe ReadyProbe
	version    string
	opts       Options
}

func New(
	log zerolog.Logger,
	identitySvc *identity.Service,
	briefings *briefing.Service,
	sessions *generation.Service,
	workflows *workflow.Engine,
	assets *asset.Generator,
	auditLog *audit.Logger,
	rp ReadyProbe,
	version string,
	opts Options,
) *API {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 50
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 25
	}
	a := &API{
		mux:        http.NewServeMux(),
		log:        log,
		identity:   identitySvc,
		briefings:  briefings,
		sessions:   sessions,
		workflows:  workflows,
		assets:     assets,
		audit:      auditLog,
		readyProbe: rp,
		version:    version,
		opts:       opts,
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.handleHealthz)
	a.mux.HandleFunc("/readyz", a.handleReady)
	a.mux.HandleFunc("/v1/info", a.handleInfo)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// identity
	a.mux.HandleFunc("/auth/login", a.handleLogin)
	a.mux.HandleFunc("/user/profile", a.handleProfile)
	a.mux.HandleFunc("/tenants", a.handleTenants)

	// briefings
	a.mux.HandleFunc("/briefings", a.handleBriefings)
	a.mux.HandleFunc("/briefings/templates", a.handleBriefingTemplates)
	a.mux.HandleFunc("/briefings/", a.handleBriefingResource)

	// generation
	a.mux.HandleFunc("/content/generate-with-agents", a.handleGenerate)
	a.mux.HandleFunc("/sessions/", a.handleSessionResource)

	// workflows
	a.mux.HandleFunc("/workflows", a.handleWorkflows)
	a.mux.HandleFunc("/workflows/", a.handleWorkflowResource)
	a.mux.HandleFunc("/approval/", a.handleApprovalResource)

	// creatives
	a.mux.HandleFunc("/creatives/generate-image", a.handleGenerateImage)
	a.mux.HandleFunc("/creatives/generate-video", a.handleGenerateVideo)
	a.mux.HandleFunc("/assets", a.handleAssets)
	a.mux.HandleFunc("/assets/", a.handleAssetResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler assembles the middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.withAuth(h)
	h = a.logging(h)
	h = requestID(h)
	h = MaxBodyBytes(h, a.opts.MaxBodyBytes)
	h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSec)
	h = SecurityHeaders(h)
	return obs.Instrument(h)
}

// --- ambient handlers ---

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "socialloom-api",
		"version": a.version,
	})
}

func (a *API) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (a *API) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "socialloom-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// writeDomainError maps domain sentinel errors to HTTP statuses. Cross-tenant
// and absent resources share one NotFound message on purpose.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, identity.ErrMissingToken):
		writeError(w, r, http.StatusUnauthorized, "missing bearer token")
	case errors.Is(err, identity.ErrInvalidToken):
		writeError(w, r, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, identity.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, generation.ErrBriefingRequired):
		writeError(w, r, http.StatusBadRequest, "briefing_id is required")
	case errors.Is(err, briefing.ErrTemplateNotFound):
		writeError(w, r, http.StatusBadRequest, "unknown briefing template")
	case errors.Is(err, briefing.ErrInvalidInput),
		errors.Is(err, generation.ErrInvalidInput),
		errors.Is(err, asset.ErrInvalidInput),
		errors.Is(err, identity.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, briefing.ErrNotFound),
		errors.Is(err, generation.ErrBriefingNotFound),
		errors.Is(err, generation.ErrSessionNotFound),
		errors.Is(err, workflow.ErrNotFound),
		errors.Is(err, asset.ErrNotFound),
		errors.Is(err, identity.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func (a *API) auditEvent(ctx context.Context, action, resourceType, resourceID string, fields map[string]string) {
	if a.audit == nil {
		return
	}
	a.audit.Event(ctx, action, resourceType, resourceID, fields)
}
