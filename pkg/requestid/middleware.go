package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header carries the request id on requests and responses.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Middleware reuses a well-formed inbound X-Request-ID or generates a new
// UUID, echoes it in the response and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !Valid(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

// Valid reports whether id is acceptable as a client supplied request id.
func Valid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
