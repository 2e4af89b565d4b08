package model

import (
	"time"
)

type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Variant    string    `gorm:"type:varchar(32);not null;index:idx_comment_target,priority:1" json:"variant"`
	ObjectID   uint      `gorm:"not null;index:idx_comment_target,priority:2" json:"object_id"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	SessionKey *string   `gorm:"type:varchar(40)" json:"-"`
	Nickname   string    `gorm:"type:varchar(50);not null" json:"nickname"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	ParentID   *uint     `gorm:"index" json:"parent,omitempty"`
	IsActive   bool      `gorm:"not null;default:true;index" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Filled by the repository, not a column
	Replies []*Comment `gorm:"-" json:"replies"`
}

// TableName specifies the table name
func (Comment) TableName() string {
	return "comments"
}

// OwnedBy reports whether the identity wrote this comment.
func (c *Comment) OwnedBy(identity Identity) bool {
	if identity.IsAuthenticated() {
		return c.UserID != nil && *c.UserID == identity.UserID
	}
	return c.SessionKey != nil && *c.SessionKey == identity.SessionKey
}
