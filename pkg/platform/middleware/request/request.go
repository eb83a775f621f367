// Package request provides request-id correlation middleware.
package request

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"fiuportal/pkg/requestcontext"
)

// HeaderRequestID is the inbound/outbound correlation header.
const HeaderRequestID = "X-Request-Id"

// ID assigns every request a correlation ID, honoring one supplied by the
// caller, and echoes it on the response. It also pins the request time so
// all deadline math within one request shares a single clock reading.
func ID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the correlation ID from a context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
