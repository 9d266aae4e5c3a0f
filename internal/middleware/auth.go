package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

type userIDKey struct{}

// Authenticator validates HS256 bearer tokens and puts the "id" claim into the request context.
type Authenticator struct {
	secret []byte
	logger *logrus.Logger
}

func NewAuthenticator(secret string, logger *logrus.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// Middleware rejects requests without a valid token. An empty secret rejects everything.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.userFromRequest(r)
		if err != nil {
			if a.logger != nil {
				a.logger.WithFields(logrus.Fields{"path": r.URL.Path, "err": err}).Debug("[Auth] rejected")
			}
			respondUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (a *Authenticator) userFromRequest(r *http.Request) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errors.New("missing bearer token")
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	id, _ := claims["id"].(string)
	if id == "" {
		return "", errors.New("token has no id claim")
	}
	return id, nil
}

func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// UserID returns the authenticated user id, or "" outside an authenticated route.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}

func respondUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   "Not authorized to access this route",
	})
}
