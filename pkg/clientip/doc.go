// Package clientip resolves the address of the caller behind the admin API.
//
// Middleware stores the resolved address in the request context, and
// LoggerExtractor adds it to every log record written with that context, so
// flag changes can be traced back to the operator that issued them.
//
// Forwarding headers are consulted in order: X-Forwarded-For (first valid
// entry), then X-Real-IP, then the connection's RemoteAddr. Only deploy the
// admin API behind a proxy that overwrites these headers.
package clientip
