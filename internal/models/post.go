package models

import "time"

// Post belongs to one author and exclusively owns its medias
type Post struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Caption   string    `json:"caption"`
	Medias    []Media   `json:"medias" gorm:"foreignKey:PostID"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Media is one stored file attached to a post. URL is resolved at read time.
type Media struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	PostID   uint   `json:"post_id" gorm:"not null;index"`
	Position int    `json:"position"`
	Filename string `json:"-" gorm:"not null"`
	URL      string `json:"media_url" gorm:"-"`
}

// TableName keeps a plural table for Media
func (Media) TableName() string {
	return "medias"
}

// FeedPost is a post annotated for a viewer
type FeedPost struct {
	Post
	Liked         bool  `json:"liked"`
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
}

// CreatePostRequest holds the text part of a multipart post upload
type CreatePostRequest struct {
	Caption string `form:"caption" validate:"max=2200"`
}
