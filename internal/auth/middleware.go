package auth

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// AdminIDKey is the context key for the admin ID
	AdminIDKey contextKey = "admin_id"
	// ClientIPKey is the context key for the client IP address
	ClientIPKey contextKey = "client_ip"
)

// AdminAuthMiddleware resolves the admin ID from the client IP and rejects
// requests it cannot attribute to an admin.
type AdminAuthMiddleware struct {
	resolver     *AdminResolver
	unauthorized func(w http.ResponseWriter, r *http.Request, ip string)
}

// NewAdminAuthMiddleware creates a new admin authentication middleware
func NewAdminAuthMiddleware(resolver *AdminResolver, unauthorized func(w http.ResponseWriter, r *http.Request, ip string)) *AdminAuthMiddleware {
	if unauthorized == nil {
		unauthorized = func(w http.ResponseWriter, _ *http.Request, _ string) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}
	return &AdminAuthMiddleware{resolver: resolver, unauthorized: unauthorized}
}

// Handler wraps an HTTP handler with admin authentication
func (m *AdminAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := m.resolver.GetClientIP(r)

		if !m.resolver.IsLoaded() {
			m.unauthorized(w, r, clientIP)
			return
		}

		adminID, found := m.resolver.GetAdminID(r)
		if !found {
			m.unauthorized(w, r, clientIP)
			return
		}

		ctx := context.WithValue(r.Context(), AdminIDKey, adminID)
		ctx = context.WithValue(ctx, ClientIPKey, clientIP)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAdminIDFromContext retrieves the admin ID from the request context
func GetAdminIDFromContext(ctx context.Context) (int, bool) {
	adminID, ok := ctx.Value(AdminIDKey).(int)
	return adminID, ok
}

// GetClientIPFromContext retrieves the client IP from the request context
func GetClientIPFromContext(ctx context.Context) (string, bool) {
	ip, ok := ctx.Value(ClientIPKey).(string)
	return ip, ok
}
