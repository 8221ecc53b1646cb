package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"lendhub-backend/internal/domain"
	"lendhub-backend/internal/metrics"
	"lendhub-backend/internal/security"
	"lendhub-backend/internal/service"
)

// AuthMiddleware verifies the bearer token and resolves the local user row
// for the session subject.
func AuthMiddleware(verifier security.TokenVerifier, users service.UserService) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			caller, err := users.ResolveCaller(r.Context(), claims.Subject)
			if err != nil {
				writeServiceError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
		})
	}
}

// MetricsMiddleware records a counter and latency sample per request,
// labeled by the mux route template rather than the raw path.
func MetricsMiddleware(collector *metrics.Collector) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					route = template
				}
			}
			collector.RecordRequest(route, r.Method, strconv.Itoa(recorder.status), time.Since(start))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// mustCaller is used inside authenticated subrouters where the middleware
// guarantees a caller is present.
func mustCaller(r *http.Request) (*domain.User, error) {
	caller, ok := callerFrom(r.Context())
	if !ok {
		return nil, fmt.Errorf("%w: no session", domain.ErrUnauthorized)
	}
	return caller, nil
}
