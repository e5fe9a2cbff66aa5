package entity

import (
	"time"
)

// Auth providers a user account can originate from.
const (
	ProviderCredentials = "credentials"
	ProviderGoogle      = "google"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes; OAuth users have an empty Password.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	AvatarURL string
	Role      string
	Provider  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the public view of a user carried by a session.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Image string `json:"image,omitempty"`
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Image: u.AvatarURL}
}
