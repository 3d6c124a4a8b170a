package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AdamBeresnev/esports-tournament/internal/httputil"
	users "github.com/AdamBeresnev/esports-tournament/internal/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
	RoleKey   ContextKey = "role"
)

// Tokens issued by the account service carry the role under this claim name.
const dotnetRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// RequireAuth verifies the bearer token and puts the subject and role into the request context.
func (a *Authenticator) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			httputil.Unauthorized(w, "missing bearer token", nil)
			return
		}

		userID, role, err := a.parse(strings.TrimSpace(tokenStr))
		if err != nil {
			httputil.Unauthorized(w, "invalid token", err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, role)))
	})
}

func (a *Authenticator) parse(tokenStr string) (uuid.UUID, users.Role, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, "", err
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return uuid.Nil, "", err
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("subject is not a user id: %w", err)
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role, _ = claims[dotnetRoleClaim].(string)
	}
	if role == "" {
		role = string(users.RolePlayer)
	}

	return userID, users.Role(strings.ToLower(role)), nil
}

// RequireRole lets the request through only when the authenticated role is one of roles.
func RequireRole(roles ...users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := GetUserIDFromContext(r.Context()); !ok {
				httputil.Unauthorized(w, "authentication required", nil)
				return
			}
			role := GetRoleFromContext(r.Context())
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.Forbidden(w, "insufficient role", errors.New(string(role)))
		})
	}
}

func WithIdentity(ctx context.Context, userID uuid.UUID, role users.Role) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, RoleKey, role)
}

func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	val := ctx.Value(UserIDKey)
	if val == nil {
		return uuid.Nil, false
	}

	id, ok := val.(uuid.UUID)
	return id, ok
}

func GetRoleFromContext(ctx context.Context) users.Role {
	role, _ := ctx.Value(RoleKey).(users.Role)
	return role
}
