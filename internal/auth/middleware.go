package auth

import (
	"context"
	"net/http"
)

type ctxUserKey struct{}

// WithUser returns ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// UserFrom returns the authenticated user, or nil for guests.
func UserFrom(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// resolve returns the user behind the request's token, if any.
func (s *Service) resolve(r *http.Request) *User {
	tok := s.TokenFromRequest(r)
	if tok == "" {
		return nil
	}
	id, err := s.ParseToken(tok)
	if err != nil {
		return nil
	}
	u, err := s.FindByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return u
}

// Optional decorates requests with the user when a valid token is present.
// It never rejects; routes behind it also serve guests.
func (s *Service) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := s.resolve(r); u != nil {
			r = r.WithContext(WithUser(r.Context(), u))
		}
		next.ServeHTTP(w, r)
	})
}

// Required rejects requests without a valid token for an existing user.
func (s *Service) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.resolve(r)
		if u == nil {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// PlayerID returns the user ID for signed-in requests, otherwise the
// anonymous cookie ID (issuing one if needed).
func (s *Service) PlayerID(w http.ResponseWriter, r *http.Request) string {
	if u := UserFrom(r.Context()); u != nil {
		return u.ID
	}
	return s.EnsureAnonID(w, r)
}
