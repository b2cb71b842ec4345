package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/storefront"
	"github.com/gin-gonic/gin"
)

type fakeValidator map[string]*storefront.Session

func (f fakeValidator) ValidateSession(_ context.Context, token string) (*storefront.Session, error) {
	if token == "expired" {
		return nil, storefront.ErrSessionExpired
	}
	sess, ok := f[token]
	if !ok {
		return nil, storefront.ErrSessionNotFound
	}
	return sess, nil
}

func testValidator() fakeValidator {
	return fakeValidator{
		"cust":  {UserID: "u1", Email: "ana@example.com", Role: storefront.RoleCliente},
		"admin": {UserID: "u2", Email: "boss@example.com", Role: storefront.RoleAdministrador},
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Bearer ":     "",
		"Basic abc":   "",
		"":            "",
		"Bearerabc":   "",
	}
	for in, want := range cases {
		got, ok := BearerToken(in)
		if got != want || ok != (want != "") {
			t.Fatalf("BearerToken(%q) = %q, %v", in, got, ok)
		}
	}
}

func TestGuard(t *testing.T) {
	var seen *storefront.Session
	h := Guard(testValidator(), storefront.RoleAdministrador)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer nope", http.StatusUnauthorized},
		{"Bearer cust", http.StatusForbidden},
		{"Bearer admin", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%q: expected %d, got %d", tt.header, tt.want, rec.Code)
		}
	}
	if seen == nil || seen.UserID != "u2" {
		t.Fatalf("expected admin session in context, got %+v", seen)
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	v := testValidator()

	r.GET("/me", RequireSession(v), func(c *gin.Context) {
		sess, _ := SessionFrom(c)
		c.String(http.StatusOK, sess.Email+" "+TokenFrom(c))
	})
	r.GET("/admin", RequireSession(v), RequireRoles(storefront.RoleAdministrador, storefront.RoleSupervisor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/token", RequireToken(), func(c *gin.Context) {
		c.String(http.StatusOK, TokenFrom(c))
	})
	return r
}

func TestRequireSession(t *testing.T) {
	r := newTestRouter()

	tests := []struct {
		path, header string
		want         int
		body         string
	}{
		{"/me", "", http.StatusUnauthorized, ""},
		{"/me", "Bearer expired", http.StatusUnauthorized, ""},
		{"/me", "Bearer cust", http.StatusOK, "ana@example.com cust"},
		{"/admin", "Bearer cust", http.StatusForbidden, ""},
		{"/admin", "Bearer admin", http.StatusNoContent, ""},
		{"/token", "Bearer whatever", http.StatusOK, "whatever"},
		{"/token", "", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Fatalf("%s %q: expected %d, got %d", tt.path, tt.header, tt.want, rec.Code)
		}
		if tt.body != "" && rec.Body.String() != tt.body {
			t.Fatalf("%s: expected body %q, got %q", tt.path, tt.body, rec.Body.String())
		}
	}
}

func TestRequireRolesWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", RequireRoles(storefront.RoleAdministrador), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
