package models

import "time"

// Content entities. These are collaborators of the reputation core: the
// promotion engine counts a user's comments, and the ownership checker
// resolves an author id per resource. Their CRUD lifecycle lives in the
// handlers, not in the engine.

type BlogPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Slug        string    `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Excerpt     string    `gorm:"size:512" json:"excerpt,omitempty"`
	Status      string    `gorm:"size:32;not null;default:DRAFT;index" json:"status"`
	ViewCount   int64     `gorm:"not null;default:0" json:"view_count"`
	UpvoteCount int64     `gorm:"not null;default:0" json:"upvote_count"`
}

type Comment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	PostID      uint      `gorm:"index;not null" json:"post_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Status      string    `gorm:"size:32;not null;default:visible" json:"status"`
	UpvoteCount int64     `gorm:"not null;default:0" json:"upvote_count"`
}

type Ranking struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uint      `gorm:"index;not null" json:"author_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text" json:"content,omitempty"`
	UpvoteCount int64     `gorm:"not null;default:0" json:"upvote_count"`
}

// OwnerID implementations let the ownership policy treat content types
// uniformly.

func (p *BlogPost) OwnerID() uint { return p.AuthorID }
func (c *Comment) OwnerID() uint  { return c.AuthorID }
func (r *Ranking) OwnerID() uint  { return r.AuthorID }
