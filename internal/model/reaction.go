package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reaction is the record behind the likes/dislikes counters of a content item.
// OwnerKey is the identity key; the unique index keeps one row per owner and target.
type Reaction struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerKey   string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_reaction_owner_target,priority:1" json:"-"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	SessionKey *string   `gorm:"type:varchar(40);index" json:"-"`
	Variant    string    `gorm:"type:varchar(32);not null;uniqueIndex:idx_reaction_owner_target,priority:2;index:idx_reaction_target,priority:1" json:"variant"`
	ObjectID   uint      `gorm:"not null;uniqueIndex:idx_reaction_owner_target,priority:3;index:idx_reaction_target,priority:2" json:"object_id"`
	Kind       string    `gorm:"type:varchar(10);not null" json:"kind"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (r *Reaction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Reaction) TableName() string {
	return "reactions"
}

// Reaction kinds
const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Toggle outcomes
const (
	ActionCreated  = "created"
	ActionRemoved  = "removed"
	ActionSwitched = "switched"
)

// ToggleResult is what a reaction toggle reports back. Current is nil after a cancel.
type ToggleResult struct {
	Action   string  `json:"action"`
	Current  *string `json:"current"`
	Likes    int64   `json:"likes"`
	Dislikes int64   `json:"dislikes"`
}
