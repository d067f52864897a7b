package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"medtrack/internal/models"

	"github.com/gin-gonic/gin"
)

// Rule grants access to requests whose method and path match.
//
// Pattern segments: "*" matches one segment, a trailing "**" matches zero or
// more. Roles may always pass; Self roles pass only when the first "*"
// segment equals the caller's user id. A rule with neither admits any
// authenticated caller.
type Rule struct {
	Methods []string
	Pattern string
	Public  bool
	Roles   []models.Role
	Self    []models.Role
}

var (
	anyRole   = []models.Role{models.RoleRep, models.RoleManager, models.RoleAdmin}
	staff     = []models.Role{models.RoleManager, models.RoleAdmin}
	adminOnly = []models.Role{models.RoleAdmin}

	get     = []string{http.MethodGet}
	writes  = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	postPut = []string{http.MethodPost, http.MethodPut}
	del     = []string{http.MethodDelete}
)

// DefaultRules is evaluated top to bottom; the first match decides.
// Requests matching no rule need only be authenticated.
var DefaultRules = []Rule{
	{Pattern: "/api/auth/**", Public: true},

	{Methods: get, Pattern: "/api/users/*/locations", Roles: staff, Self: []models.Role{models.RoleRep}},
	{Methods: get, Pattern: "/api/users/by-location/*", Roles: staff},
	{Methods: []string{http.MethodPut, http.MethodPost, http.MethodDelete}, Pattern: "/api/users/*/locations/**", Roles: adminOnly},
	{Methods: get, Pattern: "/api/users/*", Roles: adminOnly, Self: []models.Role{models.RoleRep, models.RoleManager}},
	{Pattern: "/api/users/**", Roles: adminOnly},

	{Methods: get, Pattern: "/api/locations/**"},
	{Methods: writes, Pattern: "/api/locations/**", Roles: adminOnly},
	{Methods: get, Pattern: "/api/doctors/**"},
	{Methods: writes, Pattern: "/api/doctors/**", Roles: adminOnly},
	{Methods: get, Pattern: "/api/products/**"},
	{Methods: writes, Pattern: "/api/products/**", Roles: adminOnly},

	{Methods: get, Pattern: "/api/visits/**", Roles: anyRole},
	{Methods: postPut, Pattern: "/api/visits/**", Roles: anyRole},
	{Methods: del, Pattern: "/api/visits/**", Roles: adminOnly},

	{Methods: get, Pattern: "/api/samples/**"},
	{Methods: postPut, Pattern: "/api/samples/**", Roles: anyRole},
	{Methods: del, Pattern: "/api/samples/**", Roles: adminOnly},

	{Methods: get, Pattern: "/api/orders/reports/**", Roles: staff},
	{Methods: []string{http.MethodPost, http.MethodPut, http.MethodPatch}, Pattern: "/api/orders/**", Roles: anyRole},
	{Methods: del, Pattern: "/api/orders/**", Roles: staff},

	{Methods: get, Pattern: "/api/dashboard/admin/**", Roles: adminOnly},
}

// Decision is the outcome of evaluating the rules for one request.
type Decision int

const (
	Allow Decision = iota
	Unauthenticated
	Deny
)

// Evaluate decides a request. authenticated reports whether an identity is present.
func Evaluate(rules []Rule, method, path string, authenticated bool, userID uint, role models.Role) Decision {
	for _, rule := range rules {
		if !rule.matchesMethod(method) {
			continue
		}
		captured, ok := matchPattern(rule.Pattern, path)
		if !ok {
			continue
		}
		if rule.Public {
			return Allow
		}
		if !authenticated {
			return Unauthenticated
		}
		if len(rule.Roles) == 0 && len(rule.Self) == 0 {
			return Allow
		}
		if hasRole(role, rule.Roles) {
			return Allow
		}
		if hasRole(role, rule.Self) && captured == strconv.FormatUint(uint64(userID), 10) {
			return Allow
		}
		return Deny
	}
	if !authenticated {
		return Unauthenticated
	}
	return Allow
}

// AccessControl enforces rules for requests that passed AuthMiddleware.
func AccessControl(rules []Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, role, ok := CurrentUser(c)
		switch Evaluate(rules, c.Request.Method, c.Request.URL.Path, ok, userID, role) {
		case Unauthenticated:
			abort(c, http.StatusUnauthorized, "Authentication required")
		case Deny:
			abort(c, http.StatusForbidden, "Access denied")
		default:
			c.Next()
		}
	}
}

func (r Rule) matchesMethod(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// matchPattern reports whether path matches pattern and returns the segment
// matched by the first "*".
func matchPattern(pattern, path string) (string, bool) {
	pat := splitPath(pattern)
	segs := splitPath(path)
	captured := ""
	captureSet := false

	for i, p := range pat {
		if p == "**" {
			return captured, true
		}
		if i >= len(segs) {
			return "", false
		}
		switch p {
		case "*":
			if !captureSet {
				captured = segs[i]
				captureSet = true
			}
		default:
			if p != segs[i] {
				return "", false
			}
		}
	}
	if len(segs) != len(pat) {
		return "", false
	}
	return captured, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
