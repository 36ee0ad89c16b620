package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Correlation headers. A well-formed incoming value is echoed back.
const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"
)

// maxRequestIDLength bounds client supplied ids.
const maxRequestIDLength = 128

type metaKey struct{}

// requestMeta travels in the request context. RequestID creates it; Auth
// fills the session fields and Logger reads them after the handler returns.
type requestMeta struct {
	requestID string
	traceID   string
	state     requestState
}

type requestState struct {
	userID string
	plan   string
	role   string
}

// RequestID assigns every request an id, reusing a valid X-Request-ID and
// otherwise generating a time-ordered UUIDv7.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta := &requestMeta{
			requestID: r.Header.Get(RequestIDHeader),
			traceID:   r.Header.Get(TraceIDHeader),
		}
		if !validRequestID(meta.requestID) {
			meta.requestID = newRequestID()
		}
		if !validRequestID(meta.traceID) {
			meta.traceID = ""
		}

		w.Header().Set(RequestIDHeader, meta.requestID)
		if meta.traceID != "" {
			w.Header().Set(TraceIDHeader, meta.traceID)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), metaKey{}, meta)))
	})
}

func newRequestID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// validRequestID accepts printable ASCII without spaces, safe to echo in
// headers and logs.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

func metaFromContext(ctx context.Context) *requestMeta {
	meta, _ := ctx.Value(metaKey{}).(*requestMeta)
	return meta
}

// GetRequestID returns the request id, or "" outside RequestID.
func GetRequestID(ctx context.Context) string {
	if meta := metaFromContext(ctx); meta != nil {
		return meta.requestID
	}
	return ""
}

// GetTraceID returns the caller supplied trace id, if any.
func GetTraceID(ctx context.Context) string {
	if meta := metaFromContext(ctx); meta != nil {
		return meta.traceID
	}
	return ""
}

func stateFromContext(ctx context.Context) *requestState {
	if meta := metaFromContext(ctx); meta != nil {
		return &meta.state
	}
	return nil
}
