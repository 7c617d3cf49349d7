// Package featureapi exposes flags and the requirements matrix over HTTP for
// operators: list and toggle flags, inspect or invalidate the cached matrix,
// and dry-run an enforcement decision.
//
//	GET  /flags
//	GET  /flags/{name}
//	PUT  /flags/{name}              {"enabled": true}
//	GET  /requirements              ?layer=service&operation=withdraw
//	POST /requirements/invalidate
//	POST /check                     {"layer": "service", "operation": "withdraw", "subtype": "savings"}
package featureapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/featuregate/pkg/clientip"
	"github.com/dmitrymomot/featuregate/pkg/enforce"
	"github.com/dmitrymomot/featuregate/pkg/feature"
	"github.com/dmitrymomot/featuregate/pkg/logger"
	"github.com/dmitrymomot/featuregate/pkg/requestid"
	"github.com/dmitrymomot/featuregate/pkg/requirements"
)

// FlagStore is the flag administration capability. *feature.Store satisfies it.
type FlagStore interface {
	Get(ctx context.Context, name string) (*feature.Flag, error)
	List(ctx context.Context) ([]*feature.Flag, error)
	SetEnabled(ctx context.Context, name string, enabled bool) (*feature.Flag, error)
}

// Requirements is the matrix administration capability. *requirements.Resolver satisfies it.
type Requirements interface {
	enforce.RequirementsLookup
	All(ctx context.Context) (*requirements.Matrix, error)
	Invalidate()
}

// Option configures the API.
type Option func(*API)

// WithLogger sets the logger for request failures and flag changes.
func WithLogger(l *slog.Logger) Option {
	return func(a *API) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFlagChangeHook registers a callback run after a flag is toggled, e.g.
// to purge a feature.CachedLookup.
func WithFlagChangeHook(fn func(name string)) Option {
	return func(a *API) {
		if fn != nil {
			a.onFlagChange = append(a.onFlagChange, fn)
		}
	}
}

// WithObserver reports decisions taken by the check endpoint.
func WithObserver(observers ...enforce.Observer) Option {
	return func(a *API) {
		a.observers = append(a.observers, observers...)
	}
}

// API serves the admin endpoints.
type API struct {
	flags        FlagStore
	checker      enforce.FlagChecker
	reqs         Requirements
	logger       *slog.Logger
	observers    []enforce.Observer
	onFlagChange []func(string)
}

// New creates the admin API.
func New(flags FlagStore, checker enforce.FlagChecker, reqs Requirements, opts ...Option) *API {
	a := &API{
		flags:   flags,
		checker: checker,
		reqs:    reqs,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Router returns the routes, ready to be mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestid.Middleware, clientip.Middleware)

	r.Route("/flags", func(r chi.Router) {
		r.Get("/", a.listFlags)
		r.Get("/{name}", a.getFlag)
		r.Put("/{name}", a.setFlag)
	})
	r.Route("/requirements", func(r chi.Router) {
		r.Get("/", a.listRequirements)
		r.Post("/invalidate", a.invalidate)
	})
	r.Post("/check", a.check)

	return r
}

func (a *API) listFlags(w http.ResponseWriter, r *http.Request) {
	flags, err := a.flags.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flags": flags})
}

func (a *API) getFlag(w http.ResponseWriter, r *http.Request) {
	flag, err := a.flags.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flag)
}

type setFlagRequest struct {
	Enabled *bool `json:"enabled"`
}

func (a *API) setFlag(w http.ResponseWriter, r *http.Request) {
	var req setFlagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Enabled == nil {
		a.fail(w, r, fmt.Errorf("%w: enabled is required", ErrBadRequest))
		return
	}

	name := chi.URLParam(r, "name")
	flag, err := a.flags.SetEnabled(r.Context(), name, *req.Enabled)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	for _, fn := range a.onFlagChange {
		fn(name)
	}

	a.logger.InfoContext(r.Context(), "feature flag changed",
		logger.Flag(name),
		slog.Bool("enabled", flag.Enabled),
	)
	writeJSON(w, http.StatusOK, flag)
}

func (a *API) listRequirements(w http.ResponseWriter, r *http.Request) {
	m, err := a.reqs.All(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	entries := m.Entries()
	if q.Has("layer") || q.Has("operation") {
		layer, err := requirements.ParseLayer(q.Get("layer"))
		if err != nil {
			a.fail(w, r, err)
			return
		}
		entries = m.For(layer, q.Get("operation"))
	}

	if entries == nil {
		entries = []requirements.Entry{}
	}
	flags := m.Flags()
	if flags == nil {
		flags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"flags":   flags,
	})
}

func (a *API) invalidate(w http.ResponseWriter, r *http.Request) {
	a.reqs.Invalidate()
	a.logger.InfoContext(r.Context(), "feature requirements cache invalidated")
	w.WriteHeader(http.StatusNoContent)
}

type checkRequest struct {
	Layer     string `json:"layer"`
	Operation string `json:"operation"`
	Subtype   string `json:"subtype"`
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Flag    string `json:"flag,omitempty"`
}

// check evaluates a decision without executing anything. A denial is a
// successful answer, so it is reported with 200.
func (a *API) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	layer, err := requirements.ParseLayer(req.Layer)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if req.Operation == "" {
		a.fail(w, r, fmt.Errorf("%w: operation is required", ErrBadRequest))
		return
	}

	guard := enforce.NewGuard(layer, a.checker, a.reqs,
		enforce.WithLogger(a.logger),
		enforce.WithObserver(a.observers...),
	)
	err = guard.Check(r.Context(), req.Operation, req.Subtype)
	if flag, denied := enforce.DisabledFlag(err); denied {
		writeJSON(w, http.StatusOK, checkResponse{Allowed: false, Flag: flag})
		return
	}
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checkResponse{Allowed: true})
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, expose := statusFor(err)
	msg := http.StatusText(status)
	if expose {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "admin request failed",
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
