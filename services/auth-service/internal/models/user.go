package models

import "time"

type Role int

// UserRole constants
const (
	RoleStudent Role = 1
	RoleTeacher Role = 2
	RoleAdmin   Role = 3
)

// DefaultPhoto is the profile picture reference given to new users
const DefaultPhoto = "customer_photos/default-profile-picture.jpg"

// VerificationStatus is the account state reported by the status check
type VerificationStatus string

const (
	StatusVerified VerificationStatus = "verified"
	StatusPending  VerificationStatus = "pending"
)

// User represents a user in the system
type User struct {
	ID           int
	Email        string
	FirstName    string
	LastName     string
	Username     string
	PasswordHash string
	Role         Role
	IsActive     bool
	Photo        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName builds the username shown to other users
func DisplayName(firstName, lastName string) string {
	return firstName + " " + lastName
}

// UserResponse is the public profile of a user
type UserResponse struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	IsActive  bool   `json:"isActive"`
	Photo     string `json:"photo"`
}

// ToResponse converts a user to its public profile
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Role:      u.Role,
		IsActive:  u.IsActive,
		Photo:     u.Photo,
	}
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	PasswordConf string `json:"passwordConf"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued tokens and the profile of the user
type LoginResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         UserResponse `json:"user"`
}

// EmailRequest carries a single email address
type EmailRequest struct {
	Email string `json:"email"`
}

// StatusResponse reports whether an account has been verified
type StatusResponse struct {
	Email  string             `json:"email"`
	Status VerificationStatus `json:"status"`
}

// UpdateUserRequest represents a partial profile update
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Photo     *string `json:"photo,omitempty"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}
