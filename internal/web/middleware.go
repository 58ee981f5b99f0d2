package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/roomiez/webapp/internal/nav"
	"github.com/roomiez/webapp/internal/session"
)

type ctxKey int

const guardKey ctxKey = iota

// withGuard builds the per-request guard and restores the session
// before any handler runs. Protected content must not render until the
// restore has completed.
func (h *handlers) withGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guard := session.NewGuard(scsRecords{h.sessions}, h.clock, h.log)
		if _, err := guard.Restore(r.Context()); err != nil {
			// Storage trouble degrades to anonymous rather than a
			// crash.
			h.log.Error("session restore failed", zap.Error(err))
		}
		ctx := context.WithValue(r.Context(), guardKey, guard)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// guardFrom returns the request's guard. withGuard always runs first.
func guardFrom(r *http.Request) *session.Guard {
	g, _ := r.Context().Value(guardKey).(*session.Guard)
	return g
}

// requireAuth gates the owner-scoped routes.
func (h *handlers) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guard := guardFrom(r)
		ok := guard.Require(func() {
			reason := nav.ReasonLoginRequired
			if guard.SessionExpired() {
				reason = nav.ReasonExpired
			}
			nav.RedirectTo(w, r, "/", nav.WithReason(reason))
		})
		if !ok {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger tags every request with a correlation id.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := uuid.NewString()
			next.ServeHTTP(w, r)
			log.Debug("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}
