package model

import "fmt"

// Role is the permission level of a user.
type Role string

const (
	RoleAdmin       Role = "ADMIN"
	RoleOrganizer   Role = "ORGANIZER"
	RoleParticipant Role = "PARTICIPANT"
)

var validRoles = []Role{
	RoleAdmin,
	RoleOrganizer,
	RoleParticipant,
}

// ValidateRole returns an error if r is not a recognized role.
func ValidateRole(r Role) error {
	for _, v := range validRoles {
		if r == v {
			return nil
		}
	}
	return fmt.Errorf("invalid role %q: must be one of %v", r, validRoles)
}

// User is an account that can organize, join, vote on and discuss dinners.
// PasswordHash is opaque to everything except the login layer.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
