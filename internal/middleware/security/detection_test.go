package security

import (
	"net/http/httptest"
	"testing"
)

func TestIsSuspicious(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"plain api path", "/expenses", false},
		{"dashboard with query", "/dashboard?year=2025&month=9", false},
		{"path traversal", "/../../etc/passwd", true},
		{"wordpress probe", "/wp-admin/setup.php", true},
		{"script scheme in query", "/expenses?redirect=javascript:alert(1)", true},
		{"git probe", "/.git/config", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := d.IsSuspicious(r); got != tt.want {
				t.Errorf("IsSuspicious(%s) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIsSuspiciousForgedForwardingChain(t *testing.T) {
	d := NewDetector()

	r := httptest.NewRequest("GET", "/expenses", nil)
	r.Header.Set("X-Forwarded-For", "1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4, 5.5.5.5, 6.6.6.6, 7.7.7.7")
	if !d.IsSuspicious(r) {
		t.Error("long forwarding chain should be flagged")
	}
	if d.SuspiciousRequests() != 1 {
		t.Errorf("SuspiciousRequests() = %d, want 1", d.SuspiciousRequests())
	}
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name       string
		remoteAddr string
		xff        string
		xri        string
		want       string
	}{
		{"direct connection", "203.0.113.7:4321", "", "", "203.0.113.7"},
		{"forwarded via trusted proxy", "127.0.0.1:8080", "203.0.113.7", "", "203.0.113.7"},
		{"real-ip via trusted proxy", "10.0.0.5:8080", "", "203.0.113.9", "203.0.113.9"},
		{"forwarded header from untrusted peer ignored", "203.0.113.7:4321", "6.6.6.6", "", "203.0.113.7"},
		{"invalid forwarded value falls back", "127.0.0.1:8080", "not-an-ip", "", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := d.ExtractClientIP(r); got != tt.want {
				t.Errorf("ExtractClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeadersApply(t *testing.T) {
	h := NewHeaders(DefaultHeadersConfig())

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.Apply(w, r)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS should not be set without TLS, got %q", got)
	}
}
