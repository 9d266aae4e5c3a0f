package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

func signToken(t *testing.T, secret, userID string, ttl time.Duration) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(UserID(r.Context())))
	})
}

func doAuth(t *testing.T, a *Authenticator, header string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/strategy", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	a.Middleware(echoUser()).ServeHTTP(rr, req)
	return rr
}

func TestAuthenticator_ValidToken(t *testing.T) {
	tok := signToken(t, "s3cret", "user-1", time.Hour)
	rr := doAuth(t, NewAuthenticator("s3cret", nil), "Bearer "+tok)
	if rr.Code != http.StatusOK || rr.Body.String() != "user-1" {
		t.Fatalf("unexpected: %d %q", rr.Code, rr.Body.String())
	}
}

func TestAuthenticator_Rejections(t *testing.T) {
	good := signToken(t, "s3cret", "user-1", time.Hour)
	expired := signToken(t, "s3cret", "user-1", -time.Hour)
	foreign := signToken(t, "other", "user-1", time.Hour)
	noID, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("s3cret"))
	wrongAlg, _ := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{"id": "user-1"}).SignedString([]byte("s3cret"))

	cases := map[string]struct {
		secret string
		header string
	}{
		"missing header":  {"s3cret", ""},
		"not bearer":      {"s3cret", "Basic abc"},
		"empty bearer":    {"s3cret", "Bearer  "},
		"expired":         {"s3cret", "Bearer " + expired},
		"wrong secret":    {"s3cret", "Bearer " + foreign},
		"no id claim":     {"s3cret", "Bearer " + noID},
		"wrong algorithm": {"s3cret", "Bearer " + wrongAlg},
		"no secret set":   {"", "Bearer " + good},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := doAuth(t, NewAuthenticator(tc.secret, nil), tc.header)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rr.Code)
			}
			if !strings.Contains(rr.Body.String(), `"success":false`) {
				t.Fatalf("unexpected body: %s", rr.Body.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("x"))
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/competitors", nil))

	out := buf.String()
	for _, want := range []string{"level=warning", "status=502", "path=/api/competitors", "method=POST", "bytes=1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log %q missing %q", out, want)
		}
	}
}

func TestRequestLogger_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)

	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if !strings.Contains(buf.String(), "status=200") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
}
