package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/authorizer"
)

type ctxKey string

const subjectKey ctxKey = "subject"

// SubjectFromContext returns the authenticated subject placed into the
// request context by the auth middleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectKey).(string)
	return subject, ok
}

// authMiddleware runs one authorizer invocation per request. A Deny — for
// any reason, including internal faults — answers 401; the middleware never
// fails open.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		// a failed authorization check must never fail open
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error(r.Context(), "authorization panic", "panic", p)
				writeError(w, http.StatusUnauthorized, "unauthorized", "")
			}
		}()

		inv := s.authz.Begin()
		resp := inv.Authorize(r.Context(), r.Header.Values("Authorization"))

		if resp.Effect != string(authorizer.EffectAllow) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey, resp.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
