package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"memoboard/internal/service"
	"memoboard/pkg/jwt"
	"memoboard/pkg/response"
)

func protectedEcho(auth *service.AuthService) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(GetUsername(r)))
	})
	return AuthMiddleware(auth)(next)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorBody {
	t.Helper()
	var body response.ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestAuthMiddlewareRejections(t *testing.T) {
	auth := service.NewAuthService("admin", "s3cret", "mw-secret", 24*time.Hour, time.Hour)
	handler := protectedEcho(auth)

	expired, _ := jwt.GenerateToken("admin", -time.Minute, "mw-secret")
	forged, _ := jwt.GenerateToken("admin", time.Hour, "other-secret")

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", response.CodeUnauthorized},
		{"not bearer", "Basic abc123", response.CodeUnauthorized},
		{"bearer without token", "Bearer ", response.CodeUnauthorized},
		{"garbage token", "Bearer not.a.token", response.CodeInvalidToken},
		{"wrong signature", "Bearer " + forged, response.CodeInvalidToken},
		{"expired token", "Bearer " + expired, response.CodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodDelete, "/api/memos/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestAuthMiddlewarePassesPrincipal(t *testing.T) {
	auth := service.NewAuthService("admin", "s3cret", "mw-secret", 24*time.Hour, time.Hour)
	handler := protectedEcho(auth)

	token, _ := jwt.GenerateToken("admin", 24*time.Hour, "mw-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/memos/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "admin" {
		t.Errorf("principal = %q, want admin", got)
	}
	if rec.Header().Get(response.NewTokenHeader) != "" {
		t.Error("fresh token must not trigger a renewal header")
	}
}

func TestAuthMiddlewareSlidingRenewal(t *testing.T) {
	// Renewal threshold above the validity window: every request gets a
	// replacement token attached out-of-band.
	auth := service.NewAuthService("admin", "s3cret", "mw-secret", time.Hour, 2*time.Hour)
	handler := protectedEcho(auth)

	token, _ := jwt.GenerateToken("admin", time.Hour, "mw-secret")

	req := httptest.NewRequest(http.MethodDelete, "/api/memos/x", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; renewal must not disturb the main response", rec.Code)
	}

	renewed := rec.Header().Get(response.NewTokenHeader)
	if renewed == "" {
		t.Fatal("expected X-New-Token header inside the renewal window")
	}
	if renewed == token {
		t.Error("renewed token must differ from the presented one")
	}
	if _, err := jwt.ValidateToken(renewed, "mw-secret"); err != nil {
		t.Errorf("renewed token does not validate: %v", err)
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"well formed", "Bearer tok123", "tok123", true},
		{"missing", "", "", false},
		{"wrong scheme", "Token tok123", "", false},
		{"no token", "Bearer", "", false},
		{"extra parts", "Bearer a b", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, ok := BearerToken(req)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("BearerToken() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
