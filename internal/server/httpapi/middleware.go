package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Authenticate attaches the caller's identity to the request context when a
// valid bearer token is present. It never rejects a request: resolvers decide
// whether an identity is required.
func Authenticate(secret []byte, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
			if ok {
				id, err := auth.IdentityFromToken(token, secret)
				if err != nil {
					log.Debug(r.Context(), "ignoring bearer token", "error", err)
				} else {
					r = r.WithContext(auth.WithIdentity(r.Context(), id))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessLog writes one entry per request with the fields of the combined
// log format.
func AccessLog(l *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				l.Info("request",
					zap.String("remote_addr", r.RemoteAddr),
					zap.String("method", r.Method),
					zap.String("uri", r.RequestURI),
					zap.String("proto", r.Proto),
					zap.Int("status", statusOf(ww)),
					zap.Int("bytes", ww.BytesWritten()),
					zap.String("referer", r.Referer()),
					zap.String("user_agent", r.UserAgent()),
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Duration("duration", time.Since(start)),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Metrics records request durations labelled by route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordHTTPRequest(r.Method, route, statusOf(ww), time.Since(start))
	})
}

// statusOf treats a handler that never called WriteHeader as 200.
func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}
