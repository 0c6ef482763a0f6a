package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Password        string     `json:"-"` // bcrypt hash, never serialize
	RequestLimit    int        `json:"requestLimit"`
	Is2FAEnabled    bool       `json:"is2FAEnabled"`
	TwoFactorCode   *string    `json:"-"`
	TwoFactorExpiry *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Profile is the user shape returned by the API. RequestsUsed is always
// reported as 0 on auth payloads; the dashboard reads live counts from
// /api/stats/usage instead.
type Profile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	RequestsUsed int       `json:"requestsUsed"`
	RequestLimit int       `json:"requestLimit"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		RequestLimit: u.RequestLimit,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// RegisterRequest is the JSON body for POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the JSON body for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Verify2FARequest is the JSON body for POST /api/auth/verify-2fa.
type Verify2FARequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

// Toggle2FARequest is the JSON body for POST /api/auth/toggle-2fa.
type Toggle2FARequest struct {
	Enable bool `json:"enable"`
}

// UpdateProfileRequest is the JSON body for PUT /api/user/profile.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdatePasswordRequest is the JSON body for PUT /api/user/password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
