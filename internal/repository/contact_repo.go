package repository

import (
	"context"

	"inkwell/internal/model"

	"gorm.io/gorm"
)

type ContactRepository interface {
	Create(ctx context.Context, contact *model.Contact) error
	List(ctx context.Context, limit, offset int) ([]model.Contact, int64, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) Create(ctx context.Context, contact *model.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

// List returns messages newest first, with the total count.
func (r *contactRepository) List(ctx context.Context, limit, offset int) ([]model.Contact, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var contacts []model.Contact
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&contacts).Error
	if err != nil {
		return nil, 0, err
	}
	return contacts, total, nil
}
