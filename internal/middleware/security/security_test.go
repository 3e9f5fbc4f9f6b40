package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector()
	require.NoError(t, err)
	return d
}

func TestInspect(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		agent  string
		want   string
	}{
		{"normal", http.MethodGet, "/api/habits", "worklifectl/1.0", ""},
		{"curl is fine", http.MethodPost, "/api/transactions", "curl/8.5.0", ""},
		{"traversal", http.MethodGet, "/api/../../etc/passwd", "", "pattern ../"},
		{"query probe", http.MethodGet, "/api/work/summary?x=eval(1)", "", "pattern eval("},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", "agent sqlmap"},
		{"trace", "TRACE", "/", "", "method TRACE"},
		{"long url", http.MethodGet, "/" + strings.Repeat("a", maxURLLength), "", "url too long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://x"+tt.target, nil)
			if tt.agent != "" {
				req.Header.Set("User-Agent", tt.agent)
			}
			assert.Equal(t, tt.want, newDetector(t).Inspect(req))
		})
	}
}

func TestExtractClientIP(t *testing.T) {
	d, err := NewDetector("203.0.113.0/24")
	require.NoError(t, err)

	tests := []struct {
		name   string
		remote string
		xff    string
		xri    string
		want   string
	}{
		{"direct", "198.51.100.7:5000", "", "", "198.51.100.7"},
		{"untrusted peer ignores xff", "198.51.100.7:5000", "1.2.3.4", "", "198.51.100.7"},
		{"trusted proxy", "10.0.0.2:80", "1.2.3.4, 10.0.0.2", "", "1.2.3.4"},
		{"extra trusted range", "203.0.113.9:80", "5.6.7.8", "", "5.6.7.8"},
		{"real ip fallback", "127.0.0.1:80", "garbage", "9.9.9.9", "9.9.9.9"},
		{"no port", "192.168.1.1", "", "", "192.168.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, d.ExtractClientIP(req))
		})
	}
	assert.Equal(t, int64(1), d.GetMetrics().InvalidIPAttempts)

	_, err = NewDetector("not-a-cidr")
	assert.Error(t, err)
}

func TestDetectorMiddleware(t *testing.T) {
	d := newDetector(t)
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(req *http.Request) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, serve(httptest.NewRequest(http.MethodGet, "/api/loans", nil)))
	assert.Equal(t, http.StatusNotFound, serve(httptest.NewRequest(http.MethodGet, "/.env", nil)))
	assert.Equal(t, http.StatusMethodNotAllowed, serve(httptest.NewRequest("TRACE", "/", nil)))

	scan := httptest.NewRequest(http.MethodGet, "/api/loans", nil)
	scan.Header.Set("User-Agent", "nikto")
	assert.Equal(t, http.StatusNoContent, serve(scan), "scanners are logged, not blocked")

	m := d.GetMetrics()
	assert.Equal(t, int64(3), m.SuspiciousRequests)
	assert.Equal(t, int64(2), m.BlockedRequests)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.NotFoundHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))

	cfg := DefaultHeadersConfig()
	cfg.CacheControl = ""
	rec = httptest.NewRecorder()
	NewHeadersMiddleware(cfg).Middleware(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, present := rec.Header()["Cache-Control"]
	assert.False(t, present)
}
