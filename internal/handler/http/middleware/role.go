package middleware

import (
	"net/http"

	"github.com/akanaz/exitpass-backend-go/internal/domain/user"
	"github.com/akanaz/exitpass-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// AdminOnly requires the admin role
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasRole(r, user.RoleAdmin) {
			response.HandleError(w, user.ErrAdminAccessRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HODOnly requires the hod role. Delegated faculty do not pass; delegation
// covers request decisions, never delegation management itself.
func HODOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasRole(r, user.RoleHOD) {
			response.HandleError(w, user.ErrHODAccessRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func hasRole(r *http.Request, want user.Role) bool {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return false
	}
	role, ok := claims["role"].(string)
	return ok && user.Role(role) == want
}
