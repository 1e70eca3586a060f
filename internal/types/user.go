package types

import "time"

// Role labels used by the authorization rule table.
const (
	RoleUser    = "ROLE_USER"
	RoleManager = "ROLE_MANAGER"
	RoleAdmin   = "ROLE_ADMIN"
)

// ProviderLocal tags users that sign in with a username and password.
const ProviderLocal = "local"

// User is the single persisted entity: one row in the users table.
type User struct {
	ID         int64  `json:"id" example:"1"`
	Username   string `json:"username" example:"johndoe"`  // Local login key, unique.
	Password   string `json:"-"`                           // bcrypt hash, never exposed.
	Email      string `json:"email" example:"john@doe.io"` // Not unique.
	Role       string `json:"role" example:"ROLE_USER"`
	Provider   string `json:"provider" example:"local"`            // "local" or an OAuth provider name.
	ProviderID string `json:"provider_id,omitempty" example:"1034"` // Provider-assigned subject.

	// Account status. A nil value means the condition does not apply.
	DisabledAt          *time.Time `json:"disabled_at,omitempty"`
	LockedUntil         *time.Time `json:"locked_until,omitempty"`
	LockReason          string     `json:"lock_reason,omitempty"`
	ExpiresAt           *time.Time `json:"expires_at,omitempty"`
	CredentialsExpireAt *time.Time `json:"credentials_expire_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsLocal reports whether the user signs in with local credentials.
func (u *User) IsLocal() bool {
	return u.Provider == "" || u.Provider == ProviderLocal
}

// RegisterRequest carries the registration form fields.
type RegisterRequest struct {
	Username string `json:"username" example:"johndoe"`
	Password string `json:"password" example:"Str0ngP@ss!"`
	Email    string `json:"email" example:"john@doe.io"`
}

// UpdateUserStatusParams is the admin patch for role and account status.
// Nil fields are left untouched.
type UpdateUserStatusParams struct {
	Role        *string    `json:"role,omitempty" example:"ROLE_ADMIN"`
	Disabled    *bool      `json:"disabled,omitempty"`
	LockedUntil *time.Time `json:"locked_until,omitempty"`
	LockReason  *string    `json:"lock_reason,omitempty"`
	Unlock      bool       `json:"unlock,omitempty"`
}

// ValidRole reports whether role is one of the known role labels.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleManager, RoleAdmin:
		return true
	}
	return false
}
