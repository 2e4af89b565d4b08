package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	IsStaff      bool      `gorm:"not null;default:false" json:"is_staff"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// Contact is a message left through the contact form.
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(254);not null" json:"email"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsHandled bool      `gorm:"not null;default:false" json:"is_handled"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Contact) TableName() string {
	return "articles_contact"
}

// Models returns every gorm model for AutoMigrate, content variants included.
func Models(registry *Registry) []interface{} {
	models := []interface{}{&User{}, &Contact{}, &BookReviewCategory{}, &Reaction{}, &Comment{}}
	for _, v := range registry.All() {
		models = append(models, v.New())
	}
	return models
}
