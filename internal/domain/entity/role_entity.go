package entity

// Roles a user can hold. New accounts start as RoleUser.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
