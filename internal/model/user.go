package model

import "time"

// Role is the account kind. It is a closed variant: capability checks go
// through Can, never through string comparison at call sites.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Capability gates a user intent on the journal core.
type Capability string

const (
	CapViewOwnGrades Capability = "grades:view_own"
	CapViewJournal   Capability = "journal:view"
	CapEditGrades    Capability = "journal:edit"
)

// roleCapabilities is the explicit per-role capability table.
var roleCapabilities = map[Role][]Capability{
	RoleStudent: {CapViewOwnGrades},
	RoleTeacher: {CapViewJournal, CapEditGrades},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role grants the capability.
func (r Role) Can(cap Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == cap {
			return true
		}
	}
	return false
}

// User is a journal account. Students belong to exactly one group; teachers
// carry no group.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	GroupID      string    `json:"group_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4,max=128"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
