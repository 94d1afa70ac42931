package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

type contextKey string

const userContextKey contextKey = "user"

// requireSession authenticates frontend requests by session token and
// puts the resolved user on the context. Provider webhooks never pass
// through here, they authenticate per-request via uid/token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": codeFailure, "msg": "Unauthenticated"})
			return
		}
		user, err := s.sessions.GetBySessionToken(r.Context(), token)
		if err != nil {
			s.log.WithError(err).Error("session lookup failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"code": codeFailure, "msg": "Internal error"})
			return
		}
		if user == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"code": codeFailure, "msg": "Unauthenticated"})
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(userContextKey).(*models.User)
	return user
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
