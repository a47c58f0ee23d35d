// Package access decides which role may open which dashboard route.
package access

import (
	"strings"

	"tourguide/internal/model"
)

const (
	LoginPath         = "/login"
	SignInRequiredMsg = "Please sign in to access this page"
)

// Identity is the part of a signed-in user the guard looks at.
type Identity struct {
	UserID int
	Role   string
}

// Decision is the outcome of Decide. Redirect is empty when Allowed.
type Decision struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
	Message  string `json:"message,omitempty"`
}

// routes maps a path prefix to the roles allowed under it.
var routes = []struct {
	prefix string
	roles  []string
}{
	{"/admin", []string{model.RoleAdmin}},
	{"/guide", []string{model.RoleGuide}},
	{"/tourist", []string{model.RoleTourist}},
}

// DashboardPath returns the dashboard of role, or the login page for an unknown role.
func DashboardPath(role string) string {
	canonical, ok := model.NormalizeRole(role)
	if !ok {
		return LoginPath
	}
	return "/" + strings.ToLower(canonical) + "/dashboard"
}

// AllowedRoles returns the roles that may open path; nil means public.
func AllowedRoles(path string) []string {
	for _, r := range routes {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r.roles
		}
	}
	return nil
}

// Decide classifies a navigation. A nil identity is an anonymous visitor.
// The result is advisory for clients; the API enforces roles on its own.
func Decide(id *Identity, path string) Decision {
	allowed := AllowedRoles(path)
	if allowed == nil {
		return Decision{Allowed: true}
	}
	return DecideRoles(id, allowed)
}

// DecideRoles classifies access to a route that admits the given roles.
func DecideRoles(id *Identity, allowed []string) Decision {
	if id == nil {
		return Decision{Redirect: LoginPath, Message: SignInRequiredMsg}
	}
	role, ok := model.NormalizeRole(id.Role)
	if !ok {
		return Decision{Redirect: LoginPath, Message: SignInRequiredMsg}
	}
	for _, r := range allowed {
		if r == role {
			return Decision{Allowed: true}
		}
	}
	return Decision{Redirect: DashboardPath(role)}
}
