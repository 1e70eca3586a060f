package types

import "time"

// PrincipalKind tells local principals apart from OAuth ones.
type PrincipalKind int

const (
	KindLocal PrincipalKind = iota
	KindOAuth
)

func (k PrincipalKind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindOAuth:
		return "oauth"
	default:
		return "unknown"
	}
}

// SubjectAttribute is the provider attribute read by Principal.Name.
const SubjectAttribute = "sub"

// Principal is the authenticated identity attached to a request.
//
// It is a read-only view over one User. Local principals carry credentials
// only; OAuth principals also carry the attributes the provider returned.
type Principal struct {
	kind       PrincipalKind
	user       User
	attributes map[string]any
}

// NewLocalPrincipal wraps a user that signed in with a username and password.
func NewLocalPrincipal(user User) *Principal {
	return &Principal{kind: KindLocal, user: user}
}

// NewOAuthPrincipal wraps a user that signed in through an external provider.
// The attribute map is copied.
func NewOAuthPrincipal(user User, attributes map[string]any) *Principal {
	attrs := make(map[string]any, len(attributes))
	for k, v := range attributes {
		attrs[k] = v
	}
	return &Principal{kind: KindOAuth, user: user, attributes: attrs}
}

func (p *Principal) Kind() PrincipalKind { return p.kind }

// User returns a copy of the wrapped user.
func (p *Principal) User() User { return p.user }

func (p *Principal) UserID() int64 { return p.user.ID }

func (p *Principal) Username() string { return p.user.Username }

func (p *Principal) Password() string { return p.user.Password }

// Authorities returns the single role granted to the principal.
func (p *Principal) Authorities() []string {
	return []string{p.user.Role}
}

func (p *Principal) HasRole(role string) bool {
	return p.user.Role == role
}

func (p *Principal) AccountNonExpired() bool {
	return notPassed(p.user.ExpiresAt)
}

func (p *Principal) AccountNonLocked() bool {
	return p.user.LockedUntil == nil || time.Now().After(*p.user.LockedUntil)
}

func (p *Principal) CredentialsNonExpired() bool {
	return notPassed(p.user.CredentialsExpireAt)
}

func (p *Principal) Enabled() bool {
	return p.user.DisabledAt == nil
}

// Usable reports whether every account status check passes.
func (p *Principal) Usable() bool {
	return p.Enabled() && p.AccountNonExpired() && p.AccountNonLocked() && p.CredentialsNonExpired()
}

// Attributes returns the provider attributes. The second value is false for
// local principals.
func (p *Principal) Attributes() (map[string]any, bool) {
	if p.kind != KindOAuth {
		return nil, false
	}
	return p.attributes, true
}

// Name returns the provider subject for OAuth principals and the username
// otherwise.
func (p *Principal) Name() string {
	if p.kind == KindOAuth {
		if sub, ok := p.attributes[SubjectAttribute].(string); ok {
			return sub
		}
	}
	return p.user.Username
}

func notPassed(t *time.Time) bool {
	return t == nil || time.Now().Before(*t)
}
