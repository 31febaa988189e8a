package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestManager_IssueAndParse(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, err := m.IssueToken("cand-42", "candidate")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "cand-42" || claims.UserType != "candidate" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestManager_RejectsExpiredToken(t *testing.T) {
	m := NewManager(testSecret, -time.Minute)
	token, err := m.IssueToken("cand-1", "candidate")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.ParseToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager(testSecret, time.Hour).IssueToken("cand-1", "candidate")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewManager("ffffffffffffffffffffffffffffffff", time.Hour)
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestMiddleware_AllowsValidTokenAndExposesClaims(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, _ := m.IssueToken("cand-7", "candidate")

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		claims, ok := ClaimsFrom(c)
		if !ok || claims.UserID != "cand-7" {
			t.Errorf("missing claims in handler: %+v", claims)
		}
		return c.NoContent(http.StatusOK)
	}, Middleware(m))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMiddleware_RejectsMissingAndMalformedHeaders(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	e := echo.New()
	e.GET("/protected", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, Middleware(m))

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tc.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}
