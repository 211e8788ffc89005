package auth

import "time"

type Role string

const (
	RoleRandonneur Role = "randonneur"
	RoleChasseur   Role = "chasseur"
	RoleAdmin      Role = "admin"
)

// User is the domain representation of an account.
// It mirrors the users table and should not include JSON annotations so it
// can be reused by different presentation layers. Certified is only
// meaningful for the chasseur role; admins are always permitted and
// randonneurs never create zones.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Certified    bool
	CertifiedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest contains user registration data supplied by callers.
// The role is chosen at signup; admin cannot be self-assigned.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
}

// LoginRequest contains user login credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
