package middleware

import (
	"net/http"

	"github.com/capitalize-ai/conversation-handoff/pkg/tracing"
)

// Tracing opens a server span around each request.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.Start(r.Context(), r.Method+" "+r.URL.Path,
			"http.method", r.Method,
			"http.target", r.URL.Path,
		)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
