package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected(a *Authenticator) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub, err := GetSubjectFromContext(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Subject", sub)
		w.WriteHeader(http.StatusNoContent)
	})
	return a.Authenticate(Authorize(RoleAdmin)(ok))
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	a := NewAuthenticator("secret", nil)
	admin, err := a.IssueToken("arbiter", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	viewer, _ := a.IssueToken("fan", RoleViewer, time.Hour)
	expired, _ := a.IssueToken("arbiter", RoleAdmin, -time.Minute)
	foreign, _ := NewAuthenticator("other", nil).IssueToken("arbiter", RoleAdmin, time.Hour)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + foreign, http.StatusUnauthorized},
		{"viewer", "Bearer " + viewer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			protected(a).ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
			if tt.want == http.StatusNoContent && rec.Header().Get("X-Subject") != "arbiter" {
				t.Errorf("subject not propagated: %q", rec.Header().Get("X-Subject"))
			}
		})
	}
}
