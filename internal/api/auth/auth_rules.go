package auth

import (
	"fmt"
	"path"
	"strings"

	"github.com/FACorreiaa/go-secure-demo/config"
	"github.com/FACorreiaa/go-secure-demo/internal/types"
)

// Requirement is what a rule asks of the caller.
type Requirement int

const (
	PermitAll Requirement = iota
	Authenticated
	HasRole
)

func (r Requirement) String() string {
	switch r {
	case PermitAll:
		return "permitAll"
	case Authenticated:
		return "authenticated"
	case HasRole:
		return "hasRole"
	default:
		return "unknown"
	}
}

// Rule maps a path pattern to a requirement.
//
// Patterns are exact paths, or end in "/**" to match the prefix itself and
// everything below it, or end in "/*" to match one segment below the prefix.
type Rule struct {
	Pattern     string
	Requirement Requirement
	Role        string
}

// Decision is the outcome of evaluating the rule table for one request.
type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "unauthorized"
	case DenyForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// DefaultRules is the table used when none is configured: /user/** needs a
// signed-in caller, /admin/** needs ROLE_ADMIN, anything else is open.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/user/**", Requirement: Authenticated},
		{Pattern: "/admin/**", Requirement: HasRole, Role: types.RoleAdmin},
	}
}

// RulesFromConfig converts configured rules, falling back to DefaultRules
// when the list is empty.
func RulesFromConfig(cfg []config.Rule) ([]Rule, error) {
	if len(cfg) == 0 {
		return DefaultRules(), nil
	}
	rules := make([]Rule, 0, len(cfg))
	for i, c := range cfg {
		if !strings.HasPrefix(c.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with /", i, c.Pattern)
		}
		r := Rule{Pattern: c.Pattern, Role: c.Role}
		switch c.Access {
		case "permitAll":
			r.Requirement = PermitAll
		case "authenticated":
			r.Requirement = Authenticated
		case "hasRole":
			if c.Role == "" {
				return nil, fmt.Errorf("rule %d: hasRole needs a role", i)
			}
			r.Requirement = HasRole
		default:
			return nil, fmt.Errorf("rule %d: unknown access %q", i, c.Access)
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// Matches reports whether the cleaned request path falls under the pattern.
func (r Rule) Matches(p string) bool {
	switch {
	case strings.HasSuffix(r.Pattern, "/**"):
		prefix := strings.TrimSuffix(r.Pattern, "/**")
		if prefix == "" {
			return true
		}
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	case strings.HasSuffix(r.Pattern, "/*"):
		prefix := strings.TrimSuffix(r.Pattern, "/*")
		rest, ok := strings.CutPrefix(p, prefix+"/")
		return ok && rest != "" && !strings.Contains(rest, "/")
	default:
		return p == r.Pattern
	}
}

// Evaluate applies the first matching rule. A nil principal is anonymous.
func Evaluate(rules []Rule, requestPath string, p *types.Principal) Decision {
	cleaned := cleanPath(requestPath)
	for _, rule := range rules {
		if !rule.Matches(cleaned) {
			continue
		}
		switch rule.Requirement {
		case PermitAll:
			return Allow
		case Authenticated:
			if p == nil {
				return DenyUnauthenticated
			}
			return Allow
		case HasRole:
			if p == nil {
				return DenyUnauthenticated
			}
			if !p.HasRole(rule.Role) {
				return DenyForbidden
			}
			return Allow
		}
	}
	return Allow
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
