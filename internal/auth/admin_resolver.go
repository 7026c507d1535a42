package auth

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"builder-maps/pkg/logging"
)

// Admin is one moderator entry in admins.yaml.
type Admin struct {
	ID   int      `yaml:"id"`
	Name string   `yaml:"name"`
	IPs  []string `yaml:"ips"`
}

type adminsFile struct {
	Admins []Admin `yaml:"admins"`
}

// AdminResolver resolves client IP addresses (or CIDR ranges) to admin IDs.
type AdminResolver struct {
	mu       sync.RWMutex
	exact    map[netip.Addr]int
	prefixes []prefixEntry
	loaded   bool
	yamlPath string
	log      *logging.ComponentLogger
}

type prefixEntry struct {
	prefix netip.Prefix
	id     int
}

// NewAdminResolver loads admins from yamlPath. A missing or broken file is
// logged and leaves the resolver unloaded, which blocks every admin request.
func NewAdminResolver(yamlPath string, logger *logging.Logger) *AdminResolver {
	r := &AdminResolver{exact: make(map[netip.Addr]int), yamlPath: yamlPath}
	if logger != nil {
		r.log = logger.WithComponent("auth")
	}

	ctx := context.Background()
	if err := r.loadConfig(yamlPath); err != nil {
		r.warn(ctx, "admins file not loaded; moderation endpoints are blocked",
			logging.String("path", yamlPath), logging.String("error", err.Error()))
	} else {
		r.info(ctx, "loaded admin IP mappings",
			logging.String("path", yamlPath), logging.Int("entries", r.size()))
	}
	return r
}

// loadConfig loads the YAML configuration file
func (r *AdminResolver) loadConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	exact, prefixes, err := parseAdmins(data)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact = exact
	r.prefixes = prefixes
	r.loaded = true
	return nil
}

func parseAdmins(data []byte) (map[netip.Addr]int, []prefixEntry, error) {
	var f adminsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse admins: %w", err)
	}

	exact := make(map[netip.Addr]int)
	var prefixes []prefixEntry
	for _, a := range f.Admins {
		if a.ID <= 0 {
			return nil, nil, fmt.Errorf("admin %q: id must be positive", a.Name)
		}
		for _, raw := range a.IPs {
			raw = strings.TrimSpace(raw)
			if strings.Contains(raw, "/") {
				p, err := netip.ParsePrefix(raw)
				if err != nil {
					return nil, nil, fmt.Errorf("admin %d: %w", a.ID, err)
				}
				prefixes = append(prefixes, prefixEntry{prefix: p.Masked(), id: a.ID})
				continue
			}
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("admin %d: %w", a.ID, err)
			}
			exact[addr.Unmap()] = a.ID
		}
	}
	return exact, prefixes, nil
}

// Reload reloads the admin configuration from disk
func (r *AdminResolver) Reload() error {
	if r.yamlPath == "" {
		return nil
	}
	return r.loadConfig(r.yamlPath)
}

// IsLoaded returns true if the config file was successfully loaded
func (r *AdminResolver) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

func (r *AdminResolver) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact) + len(r.prefixes)
}

// GetAdminID resolves the client IP from the request to an admin ID.
// Exact addresses win over ranges.
func (r *AdminResolver) GetAdminID(req *http.Request) (int, bool) {
	ip := extractClientIP(req)
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		r.warn(req.Context(), "unparseable client IP", logging.String("ip", ip))
		return 0, false
	}
	addr = addr.Unmap()

	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.exact[addr]; ok {
		return id, true
	}
	for _, p := range r.prefixes {
		if p.prefix.Contains(addr) {
			return p.id, true
		}
	}
	r.warn(req.Context(), "no admin for client IP", logging.String("ip", ip))
	return 0, false
}

// GetClientIP returns the client IP address from the request
func (r *AdminResolver) GetClientIP(req *http.Request) string {
	return extractClientIP(req)
}

func (r *AdminResolver) warn(ctx context.Context, msg string, fields ...logging.Field) {
	if r.log != nil {
		r.log.Warn(ctx, msg, fields...)
	}
}

func (r *AdminResolver) info(ctx context.Context, msg string, fields ...logging.Field) {
	if r.log != nil {
		r.log.Info(ctx, msg, fields...)
	}
}

// extractClientIP extracts the real client IP from the request
// Handles X-Forwarded-For and X-Real-IP headers for reverse proxy scenarios
func extractClientIP(req *http.Request) string {
	if xff := req.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := parseFirstIP(xff); ip != "" {
			return ip
		}
	}

	if xri := req.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return ip
}

// parseFirstIP extracts the first IP from a comma-separated list
func parseFirstIP(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}
