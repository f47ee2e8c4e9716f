package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/HollowDragonX/clinicforge/internal/domain"
	"github.com/HollowDragonX/clinicforge/internal/shared/config"
)

type contextKey string

const (
	UserContextKey contextKey = "user"
)

// User is the clinical actor carried on every authenticated request —
// the same identity and provenance fields every command's
// CommandMetadata requires (performed_by, performer_role,
// organization_id, facility_id, device_id), extracted once at the HTTP
// boundary so handlers don't re-parse the token.
type User struct {
	ID             domain.ID `json:"sub"`
	PerformerRole  string    `json:"performer_role"`
	Roles          []string  `json:"roles"`
	OrganizationID domain.ID `json:"organization_id"`
	FacilityID     domain.ID `json:"facility_id"`
	DeviceID       string    `json:"device_id,omitempty"`
	SessionID      string    `json:"session_id"`
}

// Claims extends JWT claims with the clinical actor fields a command
// needs to stamp its provenance.
type Claims struct {
	jwt.RegisteredClaims
	PerformerRole  string   `json:"performer_role"`
	Roles          []string `json:"roles"`
	OrganizationID string   `json:"organization_id,omitempty"`
	FacilityID     string   `json:"facility_id,omitempty"`
	DeviceID       string   `json:"device_id,omitempty"`
	SessionID      string   `json:"session_id"`
}

// Middleware creates JWT authentication middleware
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				writeError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			tokenString := parts[1]

			// Parse and validate token
			token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
				// For development, use symmetric key
				// In production, use Keycloak's public key
				return []byte(cfg.JWTSecret), nil
			})

			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(*Claims)
			if !ok || !token.Valid {
				writeError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			subject, err := domain.ParseID(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid subject identifier")
				return
			}
			organizationID, err := domain.ParseID(claims.OrganizationID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid organization identifier")
				return
			}
			facilityID, err := domain.ParseID(claims.FacilityID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid facility identifier")
				return
			}

			user := &User{
				ID:             subject,
				PerformerRole:  claims.PerformerRole,
				Roles:          claims.Roles,
				OrganizationID: organizationID,
				FacilityID:     facilityID,
				DeviceID:       claims.DeviceID,
				SessionID:      claims.SessionID,
			}

			// Add user to context
			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser extracts the user from request context
func GetUser(ctx context.Context) *User {
	user, ok := ctx.Value(UserContextKey).(*User)
	if !ok {
		return nil
	}
	return user
}

// RequireRoles creates middleware that requires specific roles
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !hasAnyRole(user.Roles, roles) {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// HasRole checks if user has a specific role
func (u *User) HasRole(role string) bool {
	return hasAnyRole(u.Roles, []string{role})
}

func hasAnyRole(userRoles, requiredRoles []string) bool {
	for _, required := range requiredRoles {
		for _, role := range userRoles {
			if role == required {
				return true
			}
		}
	}
	return false
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
