package model

import (
	"time"
)

// ContentItem is the shared surface of every content variant. Reactions, views and
// comments only ever touch an item through this interface.
type ContentItem interface {
	TableName() string
	GetID() uint
	GetTitle() string
	GetCounters() *Counters
	GetUpdatedAt() time.Time
	Visible() bool
	ResetSystemFields()
}

// Counters are mutated only through atomic column expressions, never by Save.
type Counters struct {
	Likes        int64     `gorm:"not null;default:0;index" json:"likes"`
	Dislikes     int64     `gorm:"not null;default:0;index" json:"dislikes"`
	TotalViews   int64     `gorm:"not null;default:0;index" json:"total_views"`
	TodayViews   int64     `gorm:"not null;default:0;index" json:"today_views"`
	LastViewDate time.Time `json:"last_view_date"`
}

func (c *Counters) GetCounters() *Counters {
	return c
}

type Publishable struct {
	IsPublished bool `gorm:"not null;default:false;index" json:"is_published"`
}

func (p Publishable) Visible() bool {
	return p.IsPublished
}

// Article holds the columns common to the article-style variants.
type Article struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Title   string `gorm:"type:varchar(200);not null;index" json:"title" binding:"required,max=200"`
	Content string `gorm:"type:text;not null;default:''" json:"content"`
	Author  string `gorm:"type:varchar(200);not null;default:''" json:"author"`
	Source  string `gorm:"type:varchar(200);not null;default:''" json:"source"`
	Publishable
	Counters
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (a *Article) GetID() uint {
	return a.ID
}

func (a *Article) GetTitle() string {
	return a.Title
}

func (a *Article) GetUpdatedAt() time.Time {
	return a.UpdatedAt
}

// ResetSystemFields clears everything a client must not set through CRUD.
func (a *Article) ResetSystemFields() {
	a.ID = 0
	a.Counters = Counters{}
	a.CreatedAt = time.Time{}
	a.UpdatedAt = time.Time{}
}

type News struct {
	Article
	Image *string `gorm:"type:text" json:"image,omitempty"`
}

func (News) TableName() string {
	return "articles_news"
}

type BookInfo struct {
	Article
	AuthorIntro string     `gorm:"type:text;not null;default:''" json:"author_intro"`
	Catalog     string     `gorm:"type:text;not null;default:''" json:"catalog"`
	Preface     string     `gorm:"type:text;not null;default:''" json:"preface"`
	ISBN        string     `gorm:"column:isbn;type:varchar(30);not null;default:''" json:"isbn"`
	Publisher   string     `gorm:"type:varchar(200);not null;default:''" json:"publisher"`
	PublishDate *time.Time `json:"publish_date,omitempty"`
	Price       string     `gorm:"type:varchar(20);not null;default:''" json:"price"`
	Pages       *int       `json:"pages,omitempty"`
	Binding     string     `gorm:"type:varchar(50);not null;default:''" json:"binding"`
	Image       *string    `gorm:"type:text" json:"image,omitempty"`
}

func (BookInfo) TableName() string {
	return "articles_book_info"
}

type BookReviewCategory struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Slug        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"slug"`
	Description string `gorm:"type:text;not null;default:''" json:"description"`
}

func (BookReviewCategory) TableName() string {
	return "articles_book_review_category"
}

type BookReview struct {
	Article
	BookPublishDate *time.Time `json:"book_publish_date,omitempty"`
	Image           *string    `gorm:"type:text" json:"image,omitempty"`
	CategoryID      *uint      `gorm:"index" json:"category_id,omitempty"`
}

func (BookReview) TableName() string {
	return "articles_book_review"
}

type Opinion struct {
	Article
	Image *string `gorm:"type:text" json:"image,omitempty"`
}

func (Opinion) TableName() string {
	return "articles_opinion"
}

type Literature struct {
	Article
	Image *string `gorm:"type:text" json:"image,omitempty"`
}

func (Literature) TableName() string {
	return "articles_literature"
}

// QA is only visible once a moderator approves it.
type QA struct {
	Article
	IsApproved bool `gorm:"not null;default:false;index" json:"is_approved"`
}

func (QA) TableName() string {
	return "articles_qa"
}

func (q *QA) Visible() bool {
	return q.IsPublished && q.IsApproved
}

type Translation struct {
	Article
	OriginalTitle       string     `gorm:"type:varchar(200);not null;default:''" json:"original_title"`
	OriginalAuthor      string     `gorm:"type:varchar(100);not null;default:''" json:"original_author"`
	OriginalPublishDate *time.Time `json:"original_publish_date,omitempty"`
	Image               *string    `gorm:"type:text" json:"image,omitempty"`
}

func (Translation) TableName() string {
	return "articles_translation"
}

type History struct {
	Article
	Image *string `gorm:"type:text" json:"image,omitempty"`
}

func (History) TableName() string {
	return "articles_history"
}

type Paper struct {
	Article
	Image    *string `gorm:"type:text" json:"image,omitempty"`
	Document *string `gorm:"type:text" json:"document,omitempty"`
}

func (Paper) TableName() string {
	return "articles_paper"
}

type ClassicBook struct {
	Article
	Document *string `gorm:"type:text" json:"document,omitempty"`
}

func (ClassicBook) TableName() string {
	return "articles_classic_book"
}

type Library struct {
	Article
	Document     *string    `gorm:"type:text" json:"document,omitempty"`
	AuthorIntro  string     `gorm:"type:text;not null;default:''" json:"author_intro"`
	ContentIntro string     `gorm:"type:text;not null;default:''" json:"content_intro"`
	PublishDate  *time.Time `json:"publish_date,omitempty"`
	Image        *string    `gorm:"type:text" json:"image,omitempty"`
	ISBN         string     `gorm:"column:isbn;type:varchar(30);not null;default:''" json:"isbn"`
}

func (Library) TableName() string {
	return "articles_library"
}
