package http

import (
	"context"
	"errors"
	"net/http"

	"lifeledger/internal/auth"
	"lifeledger/internal/log"
)

type principalKey struct{}

// principalFrom returns the authenticated caller set by requireUser.
func principalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}

// requireUser rejects requests without a valid bearer token and stores the
// caller in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := s.issuer.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			msg := "Invalid or expired token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "No token provided"
			}
			log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication failed",
				"path", r.URL.Path, "error", err)
			UnauthorizedError(msg).Write(w)
			return
		}

		logger := log.FromContext(r.Context()).With(log.FieldUserID, p.UserID)
		ctx := context.WithValue(r.Context(), principalKey{}, p)
		ctx = context.WithValue(ctx, log.LoggerContextKey, logger)
		next(w, r.WithContext(ctx))
	}
}

// requireAdmin is requireUser plus an admin role check.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return s.requireUser(func(w http.ResponseWriter, r *http.Request) {
		p, _ := principalFrom(r.Context())
		if !p.IsAdmin() {
			ForbiddenError("Admin access required").Write(w)
			return
		}
		next(w, r)
	})
}
