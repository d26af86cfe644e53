package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Leopold1975/articles_catalog/internal/articles/domain/access"
	"github.com/Leopold1975/articles_catalog/internal/articles/services/authservice"
	"github.com/Leopold1975/articles_catalog/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

const maxLoggedBody = 1 << 10

// headBuffer keeps the first maxLoggedBody bytes written to it.
type headBuffer struct {
	bytes.Buffer
}

func (b *headBuffer) Write(p []byte) (int, error) {
	if room := maxLoggedBody - b.Len(); room > 0 {
		b.Buffer.Write(p[:min(room, len(p))])
	}

	return len(p), nil
}

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			var body headBuffer

			ww.Tee(&body)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				logg.Infow("request",
					"request_id", middleware.GetReqID(r.Context()),
					"method", r.Method,
					"proto", r.Proto,
					"uri", r.URL.RequestURI(),
					"status", status,
					"bytes", ww.BytesWritten(),
					"latency", time.Since(start).String(),
					"client_ip", r.RemoteAddr,
					"user_agent", r.UserAgent(),
				)

				if status >= 400 && body.Len() != 0 {
					logg.Errorf("error: %s", body.String())
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// authenticate puts the bearer token's principal into the request context.
// When required is false, requests without a token pass through anonymously.
func (s *Server) authenticate(required bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				if required {
					s.handleError(w, fmt.Errorf("%w: token required", authservice.ErrUnauthorized))

					return
				}

				next.ServeHTTP(w, r)

				return
			}

			p, err := s.authService.Authenticate(token)
			if err != nil {
				s.handleError(w, fmt.Errorf("authorization error: %w", err))

				return
			}

			next.ServeHTTP(w, r.WithContext(access.WithPrincipal(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(h[len(prefix):]), true
}

// principal returns the requester set by authenticate(true).
func principal(r *http.Request) access.Principal {
	p, _ := access.FromContext(r.Context())

	return p
}
