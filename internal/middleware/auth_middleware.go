package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"memoboard/internal/service"
	"memoboard/pkg/jwt"
	"memoboard/pkg/response"
)

type contextKey string

const UsernameKey contextKey = "username"

// AuthMiddleware verifies the bearer token on write routes. Expired
// tokens get a distinct error code so clients know a refresh (rather
// than a re-login) is worth attempting. Tokens nearing expiry are
// renewed out-of-band via the X-New-Token response header.
func AuthMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				response.Unauthorized(w, response.CodeUnauthorized, "Missing or malformed authorization header")
				return
			}

			claims, renewed, err := auth.Verify(token)
			if err != nil {
				if errors.Is(err, jwt.ErrExpired) {
					response.Unauthorized(w, response.CodeTokenExpired, "Token expired")
					return
				}
				response.Unauthorized(w, response.CodeInvalidToken, "Invalid token")
				return
			}

			if renewed != "" {
				w.Header().Set(response.NewTokenHeader, renewed)
			}

			ctx := context.WithValue(r.Context(), UsernameKey, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer ..."
// header.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

func GetUsername(r *http.Request) string {
	username, ok := r.Context().Value(UsernameKey).(string)
	if !ok {
		return ""
	}
	return username
}
