package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	isAdminKey   contextKey = "is_admin"
	requestIDKey contextKey = "request_id"
)

// AuthMiddleware validates the bearer token and puts the authenticated user
// id (and admin flag) on the request context. Token issuance happens
// elsewhere; only HS256 tokens with an integer "id" claim are accepted.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				respondError(w, http.StatusUnauthorized, "unauthorized", "Authentication token is required")
				return
			}

			token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				respondError(w, http.StatusForbidden, "forbidden", "Invalid or expired token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				respondError(w, http.StatusForbidden, "forbidden", "Invalid token claims")
				return
			}
			id, ok := claims["id"].(float64)
			if !ok {
				respondError(w, http.StatusForbidden, "forbidden", "Invalid token claims")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, int64(id))
			if isAdmin, ok := claims["is_admin"].(bool); ok {
				ctx = context.WithValue(ctx, isAdminKey, isAdmin)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin users; it must run after AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAdmin, ok := r.Context().Value(isAdminKey).(bool); !ok || !isAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware tags each request with a unique id, honoring an
// inbound X-Request-ID when present.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserIDFromContext(ctx context.Context) int64 {
	if userID, ok := ctx.Value(userIDKey).(int64); ok {
		return userID
	}
	return 0
}

func getRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}
