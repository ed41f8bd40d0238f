package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainAppliesOutermostFirst(t *testing.T) {
	var order []string
	record := func(name string) middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := chain(okHandler(), record("outer"), record("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
}

func TestRequireKey(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		path   string
		header string
		want   int
	}{
		{"no header", "secret", "/chat", "", http.StatusUnauthorized},
		{"wrong key", "secret", "/chat", "Bearer nope", http.StatusUnauthorized},
		{"not bearer", "secret", "/chat", "Basic secret", http.StatusUnauthorized},
		{"valid key", "secret", "/chat", "Bearer secret", http.StatusOK},
		{"health stays open", "secret", "/health", "", http.StatusOK},
		{"empty key disables auth", "", "/chat", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := requireKey(tt.key)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRecoverPanicsReturns500(t *testing.T) {
	h := recoverPanics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Errorf("body = %q, want error payload", rec.Body.String())
	}
}

func TestAllowOrigins(t *testing.T) {
	h := allowOrigins("https://clinic.example")(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Errorf("Allow-Origin = %q", got)
	}

	// Empty origin list leaves the handler untouched.
	rec = httptest.NewRecorder()
	allowOrigins("")(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status without CORS = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers must not be set when no origins are configured")
	}
}

func TestAnnotateReachesAccessLog(t *testing.T) {
	var captured *chatLog
	h := accessLog()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		annotate(w, "user", "u-1", "outcome", "match")
		captured = w.(*chatLog)
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/chat", nil))

	if captured == nil {
		t.Fatal("handler did not see the chat log recorder")
	}
	if captured.status != http.StatusTeapot {
		t.Errorf("recorded status = %d, want %d", captured.status, http.StatusTeapot)
	}
	if len(captured.attrs) != 4 || captured.attrs[0] != "user" || captured.attrs[1] != "u-1" {
		t.Errorf("attrs = %v", captured.attrs)
	}

	// Outside the access log, annotate must be a silent no-op.
	annotate(httptest.NewRecorder(), "user", "u-2")
}
