package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"builder-maps/pkg/logging"
)

const testAdmins = `admins:
  - id: 123456
    name: alice
    ips: ["10.0.1.5", "2001:db8::1"]
  - id: 789012
    name: bob
    ips: ["10.0.1.8", "172.16.0.0/16"]
`

func writeAdmins(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "admins.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func newTestResolver(t *testing.T) *AdminResolver {
	t.Helper()
	var buf bytes.Buffer
	r := NewAdminResolver(writeAdmins(t, testAdmins), logging.NewWriterLogger(&buf, logging.DefaultLogConfig()))
	if !r.IsLoaded() {
		t.Fatalf("resolver not loaded: %s", buf.String())
	}
	return r
}

func TestAdminResolver_GetAdminID(t *testing.T) {
	resolver := newTestResolver(t)

	tests := []struct {
		name          string
		remoteAddr    string
		expectedID    int
		expectedFound bool
		xForwardedFor string
		xRealIP       string
	}{
		{name: "Valid IP - RemoteAddr", remoteAddr: "10.0.1.5:12345", expectedID: 123456, expectedFound: true},
		{name: "Valid IP - X-Forwarded-For", remoteAddr: "192.168.1.1:12345", xForwardedFor: "10.0.1.8, 10.0.0.1", expectedID: 789012, expectedFound: true},
		{name: "Valid IP - X-Real-IP", remoteAddr: "192.168.1.1:12345", xRealIP: "10.0.1.5", expectedID: 123456, expectedFound: true},
		{name: "IPv6", remoteAddr: "[2001:db8::1]:443", expectedID: 123456, expectedFound: true},
		{name: "CIDR range", remoteAddr: "172.16.44.9:8080", expectedID: 789012, expectedFound: true},
		{name: "IPv4-mapped IPv6", remoteAddr: "[::ffff:10.0.1.5]:80", expectedID: 123456, expectedFound: true},
		{name: "Unknown IP", remoteAddr: "192.168.1.1:12345", expectedFound: false},
		{name: "Garbage header", remoteAddr: "192.168.1.1:12345", xRealIP: "not-an-ip", expectedFound: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			adminID, found := resolver.GetAdminID(req)
			if found != tt.expectedFound {
				t.Errorf("GetAdminID() found = %v, want %v", found, tt.expectedFound)
			}
			if found && adminID != tt.expectedID {
				t.Errorf("GetAdminID() adminID = %v, want %v", adminID, tt.expectedID)
			}
		})
	}
}

func TestAdminResolver_MissingOrInvalidFile(t *testing.T) {
	r := NewAdminResolver(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if r.IsLoaded() {
		t.Error("IsLoaded() should be false for a missing file")
	}

	bad := []string{
		"admins: [oops",
		"admins:\n  - id: 0\n    ips: [\"10.0.0.1\"]\n",
		"admins:\n  - id: 1\n    ips: [\"10.0.0.300\"]\n",
		"admins:\n  - id: 1\n    ips: [\"10.0.0.0/40\"]\n",
	}
	for _, content := range bad {
		if r := NewAdminResolver(writeAdmins(t, content), nil); r.IsLoaded() {
			t.Errorf("expected %q to be rejected", content)
		}
	}
}

func TestAdminResolver_Reload(t *testing.T) {
	path := writeAdmins(t, testAdmins)
	r := NewAdminResolver(path, nil)

	if err := os.WriteFile(path, []byte("admins:\n  - id: 42\n    ips: [\"192.168.1.1\"]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.1:1"
	if id, ok := r.GetAdminID(req); !ok || id != 42 {
		t.Errorf("after reload got (%d, %v)", id, ok)
	}
	req.RemoteAddr = "10.0.1.5:1"
	if _, ok := r.GetAdminID(req); ok {
		t.Error("old mapping should be gone after reload")
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expectedIP    string
	}{
		{name: "RemoteAddr only", remoteAddr: "192.168.1.1:12345", expectedIP: "192.168.1.1"},
		{name: "X-Forwarded-For single IP", remoteAddr: "192.168.1.1:12345", xForwardedFor: "10.0.1.5", expectedIP: "10.0.1.5"},
		{name: "X-Forwarded-For chain", remoteAddr: "192.168.1.1:12345", xForwardedFor: " 10.0.1.5 , 10.0.0.1", expectedIP: "10.0.1.5"},
		{name: "X-Real-IP", remoteAddr: "192.168.1.1:12345", xRealIP: "10.0.1.8", expectedIP: "10.0.1.8"},
		{name: "RemoteAddr without port", remoteAddr: "192.168.1.1", expectedIP: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}
			if ip := extractClientIP(req); ip != tt.expectedIP {
				t.Errorf("extractClientIP() = %v, want %v", ip, tt.expectedIP)
			}
		})
	}
}

func TestAdminAuthMiddleware(t *testing.T) {
	resolver := newTestResolver(t)
	var gotID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetAdminIDFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := NewAdminAuthMiddleware(resolver, nil).Handler(next)

	req := httptest.NewRequest("POST", "/admin/spots/1/approve", nil)
	req.RemoteAddr = "10.0.1.5:999"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || gotID != 123456 {
		t.Errorf("admin request: code=%d id=%d", rec.Code, gotID)
	}

	req.RemoteAddr = "8.8.8.8:999"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger request: code=%d", rec.Code)
	}
}
