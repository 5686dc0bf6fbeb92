package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is an account of the social graph
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"size:255;not null;uniqueIndex"`
	ProfileName string    `json:"profile_name" gorm:"size:50;not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"size:100"`
	Password    string    `json:"-"` // bcrypt hash
	Avatar      *string   `json:"-"`
	AvatarURL   *string   `json:"avatar_url" gorm:"-"`
	FirebaseUID *string   `json:"-" gorm:"uniqueIndex"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthenticatedCaller is the identity resolved by the auth middleware for a request
type AuthenticatedCaller struct {
	ID    uint
	Email string
}

// UserProfile is a user together with its graph counters and posts
type UserProfile struct {
	User
	FollowersCount int64      `json:"followers_count"`
	FollowingCount int64      `json:"following_count"`
	Followed       bool       `json:"followed"`
	Posts          []FeedPost `json:"posts"`
}

// CreateLocalUserRequest is the signup body
type CreateLocalUserRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	ProfileName string `json:"profile_name" validate:"required,min=3,max=50,alphanum"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
}

// LoginRequest is the signin body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// FirebaseLoginRequest carries a Firebase ID token
type FirebaseLoginRequest struct {
	IDToken     string `json:"id_token" validate:"required"`
	ProfileName string `json:"profile_name,omitempty" validate:"omitempty,min=3,max=50,alphanum"`
}

// UpdateUserRequest holds the editable profile fields
type UpdateUserRequest struct {
	Name        string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	ProfileName string `json:"profile_name,omitempty" validate:"omitempty,min=3,max=50,alphanum"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
}

// ChangePasswordRequest is the body of a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
