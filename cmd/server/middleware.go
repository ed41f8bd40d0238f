package main

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"
)

// middleware wraps an http.Handler with one cross-cutting concern.
type middleware func(http.Handler) http.Handler

// chain applies the middleware to h outermost-first: the first element sees
// the request before all the others.
func chain(h http.Handler, mw ...middleware) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}

// chatLog captures the response status plus any per-request attributes the
// handlers attach via annotate, so the access log line can carry chat-level
// context (user, language, outcome) next to the transport fields.
type chatLog struct {
	http.ResponseWriter
	status int
	attrs  []any
}

func (c *chatLog) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

// annotate attaches slog key/value pairs to the access log line of the
// current request. A no-op when the access log is not installed.
func annotate(w http.ResponseWriter, kv ...any) {
	if c, ok := w.(*chatLog); ok {
		c.attrs = append(c.attrs, kv...)
	}
}

// accessLog writes one line per request: transport fields first, then
// whatever the handler annotated.
func accessLog() middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			cl := &chatLog{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(cl, r)

			args := append([]any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", cl.status,
				"elapsed", time.Since(start).Round(time.Millisecond),
				"remote", r.RemoteAddr,
			}, cl.attrs...)
			slog.Info("request", args...)
		})
	}
}

// requireKey rejects requests whose Authorization header does not carry the
// bearer key. An empty key disables the check; /health stays open either way
// so probes do not need credentials.
func requireKey(key string) middleware {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token != key {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// recoverPanics turns a handler panic into a 500 after logging the stack.
func recoverPanics() middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					slog.Error("handler panic",
						"path", r.URL.Path,
						"value", v,
						"stack", string(debug.Stack()),
					)
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// allowOrigins sets CORS headers for the given comma-separated origin list
// and short-circuits preflight requests. Empty origins leaves CORS off.
func allowOrigins(origins string) middleware {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  origins,
		"Access-Control-Allow-Methods": "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Max-Age":       "86400",
	}
	return func(next http.Handler) http.Handler {
		if origins == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range headers {
				w.Header().Set(k, v)
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
