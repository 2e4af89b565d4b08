package model

import "time"

type Scripture struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Title string  `gorm:"type:varchar(200);not null;index" json:"title" binding:"required,max=200"`
	Image *string `gorm:"type:text" json:"image,omitempty"`
	Publishable
	Counters
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (Scripture) TableName() string {
	return "articles_scripture"
}

func (s *Scripture) GetID() uint             { return s.ID }
func (s *Scripture) GetTitle() string        { return s.Title }
func (s *Scripture) GetUpdatedAt() time.Time { return s.UpdatedAt }

func (s *Scripture) ResetSystemFields() {
	s.ID = 0
	s.Counters = Counters{}
	s.CreatedAt = time.Time{}
	s.UpdatedAt = time.Time{}
}

// ScriptureChapter belongs to a Scripture and is ordered by Order within it.
type ScriptureChapter struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	ScriptureID uint   `gorm:"not null;index:idx_chapter_order,priority:1" json:"scripture_id" binding:"required"`
	Title       string `gorm:"type:varchar(200);not null" json:"title" binding:"required,max=200"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Order       int    `gorm:"column:sort_order;not null;default:0;index:idx_chapter_order,priority:2" json:"order"`
	Publishable
	Counters
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (ScriptureChapter) TableName() string {
	return "articles_scripture_chapter"
}

func (s *ScriptureChapter) GetID() uint             { return s.ID }
func (s *ScriptureChapter) GetTitle() string        { return s.Title }
func (s *ScriptureChapter) GetUpdatedAt() time.Time { return s.UpdatedAt }

func (s *ScriptureChapter) ResetSystemFields() {
	s.ID = 0
	s.Counters = Counters{}
	s.CreatedAt = time.Time{}
	s.UpdatedAt = time.Time{}
}
