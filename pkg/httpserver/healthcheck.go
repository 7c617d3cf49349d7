package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/dmitrymomot/featuregate/pkg/logger"
)

// Check reports whether a dependency, such as the flag store or the
// requirements source, is usable.
type Check func(ctx context.Context) error

type healthResponse struct {
	Status string   `json:"status"`
	Failed []string `json:"failed,omitempty"`
}

// HealthHandler runs every check in name order with the request context,
// each bounded by timeout when timeout is positive. It answers 200 with
// {"status":"ok"} when all pass and 503 listing the failed checks otherwise.
// With no checks it acts as a liveness probe.
func HealthHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	names := slices.Sorted(maps.Keys(checks))

	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		for _, name := range names {
			if err := runCheck(r.Context(), timeout, checks[name]); err != nil {
				log.WarnContext(r.Context(), "health check failed",
					slog.String("check", name), logger.Error(err))
				resp.Failed = append(resp.Failed, name)
			}
		}

		status := http.StatusOK
		if len(resp.Failed) > 0 {
			resp.Status = "unavailable"
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func runCheck(ctx context.Context, timeout time.Duration, check Check) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return check(ctx)
}
