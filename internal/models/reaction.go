package models

import "time"

// Reaction is a like. One per (post, user).
type Reaction struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    uint      `json:"post_id" gorm:"not null;uniqueIndex:idx_post_user"`
	UserID    uint      `json:"user_id" gorm:"not null;index;uniqueIndex:idx_post_user"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"created_at"`
}
