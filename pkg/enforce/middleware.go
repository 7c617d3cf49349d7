package enforce

import (
	"encoding/json"
	"errors"
	"net/http"
)

// DenyHandler writes the response for a rejected request.
type DenyHandler func(w http.ResponseWriter, r *http.Request, err error)

// SubtypeFromRequest extracts the subtype of an HTTP call. Returning ""
// means undetermined.
type SubtypeFromRequest func(r *http.Request) string

// Middleware gates an HTTP handler as operation on guard's layer, which
// normally is LayerAPI. A nil subtype leaves the subtype undetermined; a nil
// onDeny uses DefaultDenyHandler.
func Middleware(guard *Guard, operation string, subtype SubtypeFromRequest, onDeny DenyHandler) func(http.Handler) http.Handler {
	if onDeny == nil {
		onDeny = DefaultDenyHandler
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var st string
			if subtype != nil {
				st = subtype(r)
			}
			if err := guard.Check(r.Context(), operation, st); err != nil {
				onDeny(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultDenyHandler responds 403 with the blocking flag for a disabled
// feature and a bare 500 for any failure to decide. Failure details stay in
// the guard's log.
func DefaultDenyHandler(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	body := map[string]string{"error": http.StatusText(status)}

	var fde *FeatureDisabledError
	if errors.As(err, &fde) {
		status = http.StatusForbidden
		body["error"] = ErrFeatureDisabled.Error()
		body["flag"] = fde.Flag
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
