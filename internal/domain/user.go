package domain

import "time"

// Role enumerates the access levels a user account can hold.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleSupport  Role = "SUPPORT"
	RoleEmployee Role = "EMPLOYEE"
)

// ParseRole maps free-form input onto the closed role set.
func ParseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleAdmin, RoleSupport, RoleEmployee:
		return Role(value), true
	}
	return "", false
}

// User is the domain model for system actors.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         Role
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProfile is the sanitized projection of a user, safe to transmit
// externally. It never carries the password hash.
type UserProfile struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	Role         Role
	DepartmentID *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile projects the user onto its sanitized view.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Email:        u.Email,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
