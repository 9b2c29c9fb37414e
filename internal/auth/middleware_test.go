package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func loginToken(t *testing.T, svc *Service, email, password string) string {
	t.Helper()
	result, err := svc.Login(context.Background(), email, password)
	if err != nil {
		t.Fatalf("Login %s: %v", email, err)
	}
	return result.AccessToken
}

func TestRequireRoleGates(t *testing.T) {
	svc, users := newTestAuth(t)
	seedUser(t, users, "admin@example.com", "password1", RoleAdmin)
	seedUser(t, users, "manager@example.com", "password1", RoleManager)
	seedUser(t, users, "seller@example.com", "password1", RoleSeller)

	mw := Middleware{Service: svc}
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	managed := mw.RequireRole(RoleManager)(ok)
	adminOnly := mw.RequireRole(RoleAdmin)(ok)

	cases := []struct {
		name    string
		handler http.Handler
		email   string
		want    int
	}{
		{"manager passes managed routes", managed, "manager@example.com", http.StatusOK},
		{"admin passes managed routes", managed, "admin@example.com", http.StatusOK},
		{"seller refused managed routes", managed, "seller@example.com", http.StatusForbidden},
		{"admin passes admin routes", adminOnly, "admin@example.com", http.StatusOK},
		{"manager refused admin routes", adminOnly, "manager@example.com", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+loginToken(t, svc, tc.email, "password1"))
		rec := httptest.NewRecorder()
		tc.handler.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	svc, _ := newTestAuth(t)
	mw := Middleware{Service: svc}
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
