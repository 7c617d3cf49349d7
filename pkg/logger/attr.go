package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// RequestID records the request identifier under the key "request_id".
// If id is nil, it returns an empty Attr.
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Flag records a feature flag name under the key "flag".
// An empty name yields an empty Attr.
func Flag(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("flag", name)
}

// Layer records an enforcement layer under the key "layer".
func Layer(layer string) slog.Attr {
	return slog.String("layer", layer)
}

// Operation records an operation name under the key "operation".
func Operation(name string) slog.Attr {
	return slog.String("operation", name)
}

// Subtype records the call subtype under the key "subtype".
// An undetermined (empty) subtype is logged as "unknown".
func Subtype(subtype string) slog.Attr {
	if subtype == "" {
		subtype = "unknown"
	}
	return slog.String("subtype", subtype)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
