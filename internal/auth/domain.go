package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Profile holds the public details and role of a user.
type Profile struct {
	ID        string
	FullName  string
	NoTelpon  string
	Role      string
	CreatedAt time.Time
}

// Account is a user joined with its profile.
type Account struct {
	User    User
	Profile Profile
}

// Registration is a validated sign-up request.
type Registration struct {
	FullName string
	Email    string
	NoTelpon string
	Password string
}
