package clientip

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/dmitrymomot/featuregate/pkg/logger"
)

type contextKey struct{}

// FromRequest returns the normalized client address, or "" when none of the
// sources holds a valid IP.
func FromRequest(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for ip := range strings.SplitSeq(forwarded, ",") {
			if parsed := normalize(ip); parsed != "" {
				return parsed
			}
		}
	}
	if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return normalize(r.RemoteAddr)
	}
	return normalize(host)
}

func normalize(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// WithContext stores ip in ctx.
func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

// FromContext returns the address stored by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(contextKey{}).(string)
	return ip, ok && ip != ""
}

// Middleware resolves the client address and stores it in the request context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), FromRequest(r))))
	})
}

// LoggerExtractor adds the client_ip attribute to records logged with a
// request context.
func LoggerExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		ip, ok := FromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("client_ip", ip), true
	}
}
