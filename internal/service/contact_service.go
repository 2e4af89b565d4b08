package service

import (
	"context"
	"strings"

	"inkwell/internal/apperror"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

type ContactService interface {
	Submit(ctx context.Context, req ContactRequest) (*model.Contact, error)
	List(ctx context.Context, limit, offset int) ([]model.Contact, int64, error)
}

type ContactRequest struct {
	Email   string `json:"email" binding:"required,email,max=254" validate:"required,email,max=254"`
	Subject string `json:"subject" binding:"required,max=255" validate:"required,max=255"`
	Message string `json:"message" binding:"required,max=5000" validate:"required,max=5000"`
}

type contactService struct {
	contactRepo repository.ContactRepository
}

func NewContactService(contactRepo repository.ContactRepository) ContactService {
	return &contactService{contactRepo: contactRepo}
}

func (s *contactService) Submit(ctx context.Context, req ContactRequest) (*model.Contact, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := validate.Struct(req); err != nil {
		return nil, apperror.Validation("Invalid contact message")
	}

	contact := &model.Contact{
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, apperror.Storage("create contact", err)
	}
	return contact, nil
}

func (s *contactService) List(ctx context.Context, limit, offset int) ([]model.Contact, int64, error) {
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	contacts, total, err := s.contactRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperror.Storage("list contacts", err)
	}
	if contacts == nil {
		contacts = []model.Contact{}
	}
	return contacts, total, nil
}
