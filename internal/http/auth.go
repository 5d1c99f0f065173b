package http

import (
	"context"
	"net/http"

	"spenny/internal/core"
	spennylog "spenny/internal/log"
)

type userKey struct{}

// TokenVerifier resolves a bearer credential to a live user ID.
type TokenVerifier interface {
	Verify(ctx context.Context, bearer string) (string, error)
}

// requireUser rejects requests without a valid bearer token and stores the
// caller's ID in the request context.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.verifier.Verify(r.Context(), BearerToken(r))
		if err != nil {
			fail(w, r, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, userID)))
	}
}

// currentUser returns the caller set by requireUser.
func currentUser(r *http.Request) string {
	id, _ := r.Context().Value(userKey{}).(string)
	return id
}

// fail writes err as an error envelope. Internal and Unavailable failures
// are logged with their source.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := spennylog.FromContext(r.Context())
	switch core.KindOf(err) {
	case core.KindInternal:
		logger.ErrorContext(r.Context(), "Request failed",
			spennylog.FieldError, err,
			spennylog.FieldPath, r.URL.Path,
			spennylog.FieldErrorKind, core.KindInternal.String())
	case core.KindUnavailable:
		logger.WarnContext(r.Context(), "Entity store unavailable",
			spennylog.FieldError, err,
			spennylog.FieldPath, r.URL.Path,
			spennylog.FieldErrorKind, core.KindUnavailable.String())
	}
	KindError(err).Write(w)
}
