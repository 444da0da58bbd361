package domain

import "time"

// Role enumerates authorization levels for dashboard accounts.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAgent  Role = "agent"
	RoleViewer Role = "viewer"
	// RoleUser is the default assigned on self-signup. It grants nothing
	// beyond an authenticated session and cannot be assigned through the
	// admin role update path.
	RoleUser Role = "user"
)

// AssignableRoles are the roles an administrator may set on an account.
var AssignableRoles = []Role{RoleAdmin, RoleAgent, RoleViewer}

// Assignable reports whether the role may be set via the admin path.
func (r Role) Assignable() bool {
	for _, role := range AssignableRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User is the domain model for dashboard accounts.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch enumerates the fields an admin partial update may touch. Nil
// means "leave unchanged"; the repository turns populated fields into a
// parameterized SET list.
type UserPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the patch touches no fields.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil
}
