package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// AccountKey is the context key for the authenticated account.
	AccountKey contextKey = "account"
	// ClaimsKey is the context key for the token claims.
	ClaimsKey contextKey = "claims"
)

// PortalClaims are the claims the portal's session layer puts in bearer
// tokens. The subject is the caller's wallet address.
type PortalClaims struct {
	jwt.RegisteredClaims
}

// AuthConfig holds bearer-token validation settings.
type AuthConfig struct {
	Secret []byte
	Issuer string
}

// Auth creates middleware that validates portal-issued JWT bearer tokens.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				}
			}

			if tokenString == "" {
				http.Error(w, `{"error":"missing authorization"}`, http.StatusUnauthorized)
				return
			}

			claims := &PortalClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return cfg.Secret, nil
			}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
			if err != nil || !token.Valid {
				http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
				return
			}

			if claims.Subject == "" {
				http.Error(w, `{"error":"invalid token subject"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AccountKey, claims.Subject)
			ctx = context.WithValue(ctx, ClaimsKey, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccount extracts the authenticated account from the request context.
func GetAccount(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(AccountKey).(string)
	return account, ok
}

// GetClaims extracts the token claims from the request context.
func GetClaims(ctx context.Context) (*PortalClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*PortalClaims)
	return claims, ok
}
