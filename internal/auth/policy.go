package auth

import (
	"net/http"
	"strings"
)

// Policy determines required roles by request.
type Policy struct {
	ExemptPaths    map[string]struct{}
	ExemptPrefixes []string
}

// NewDefaultPolicy builds a default policy with exemptions.
func NewDefaultPolicy(exemptPaths []string, exemptPrefixes []string) Policy {
	set := make(map[string]struct{}, len(exemptPaths))
	for _, path := range exemptPaths {
		set[path] = struct{}{}
	}
	return Policy{ExemptPaths: set, ExemptPrefixes: exemptPrefixes}
}

// IsExempt returns true when a request should skip auth/RBAC.
func (p Policy) IsExempt(r *http.Request) bool {
	if r == nil {
		return true
	}
	if _, ok := p.ExemptPaths[r.URL.Path]; ok {
		return true
	}
	for _, prefix := range p.ExemptPrefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return false
}

// RequiredRole resolves required role for the request. Finer checks, such as
// which users a manager may see, live in the reporting service.
func (p Policy) RequiredRole(r *http.Request) (Role, bool) {
	if r == nil {
		return "", false
	}
	path := r.URL.Path
	method := r.Method
	read := method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions

	switch {
	case path == "/api/v1/home":
		return RoleUser, true
	case path == "/api/v1/transactions",
		strings.HasPrefix(path, "/api/v1/transactions/"):
		return RoleUser, true
	case path == "/api/v1/users":
		if read {
			return RoleManager, true
		}
		return RoleAdmin, true
	case strings.HasPrefix(path, "/api/v1/users/") && strings.HasSuffix(path, "/detail"):
		return RoleUser, true
	case strings.HasPrefix(path, "/api/v1/reports/"):
		return RoleManager, true
	case path == "/api/v1/plazas", strings.HasPrefix(path, "/api/v1/plazas/"),
		path == "/api/v1/generators", strings.HasPrefix(path, "/api/v1/generators/"):
		if read {
			return RoleUser, true
		}
		return RoleAdmin, true
	}

	if strings.HasPrefix(path, "/api/") {
		if read {
			return RoleUser, true
		}
		return RoleAdmin, true
	}
	return "", false
}
