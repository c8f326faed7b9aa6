package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		headers    map[string]string
		wantAddr   string
	}{
		{
			name:       "no trusted proxies keeps remote addr",
			trusted:    nil,
			remoteAddr: "203.0.113.7:4321",
			headers:    map[string]string{"X-Real-IP": "10.0.0.9"},
			wantAddr:   "203.0.113.7:4321",
		},
		{
			name:       "untrusted connection ignores headers",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "203.0.113.7:4321",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			wantAddr:   "203.0.113.7:4321",
		},
		{
			name:       "trusted proxy honors X-Real-IP",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			wantAddr:   "198.51.100.1",
		},
		{
			name:       "trusted proxy takes first forwarded hop",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.1.2.3"},
			wantAddr:   "198.51.100.1",
		},
		{
			name:       "invalid header value keeps remote addr",
			trusted:    []string{"10.0.0.0/8"},
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Real-IP": "not-an-ip"},
			wantAddr:   "10.1.2.3:80",
		},
		{
			name:       "bare IP entry trusts that host",
			trusted:    []string{"10.1.2.3"},
			remoteAddr: "10.1.2.3:80",
			headers:    map[string]string{"X-Real-IP": "198.51.100.1"},
			wantAddr:   "198.51.100.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAddr string
			handler := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAddr = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for name, value := range tt.headers {
				req.Header.Set(name, value)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if gotAddr != tt.wantAddr {
				t.Errorf("RemoteAddr = %q, want %q", gotAddr, tt.wantAddr)
			}
		})
	}
}
