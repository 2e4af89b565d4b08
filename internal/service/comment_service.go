package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"

	"gorm.io/gorm"
)

const (
	CommentExchange   = "comment_exchange"
	CommentQueue      = "comment_queue"
	CommentRoutingKey = "comment.created"
)

// EventPublisher sends a message to a broker exchange.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

type CommentService interface {
	List(ctx context.Context, tag string, id uint) ([]*model.Comment, error)
	Create(ctx context.Context, req CreateCommentRequest, identity model.Identity) (*model.Comment, error)
	Delete(ctx context.Context, commentID uint, identity model.Identity) error
}

// CreateCommentRequest is the body of POST /comments. Model is accepted in place of
// Variant for older clients.
type CreateCommentRequest struct {
	Variant  string `json:"variant"`
	Model    string `json:"model"`
	ID       uint   `json:"id"`
	Content  string `json:"content" binding:"required,max=2000"`
	Parent   *uint  `json:"parent,omitempty"`
	Nickname string `json:"nickname" binding:"max=50"`
}

func (r CreateCommentRequest) VariantTag() string {
	if r.Variant != "" {
		return r.Variant
	}
	return r.Model
}

// CommentEvent travels over the broker and ends up in the item's websocket room.
type CommentEvent struct {
	Variant string         `json:"variant"`
	ID      uint           `json:"id"`
	Comment *model.Comment `json:"comment"`
}

type commentService struct {
	commentRepo repository.CommentRepository
	contentRepo repository.ContentRepository
	registry    *model.Registry
	publisher   EventPublisher
	broadcaster Broadcaster
}

// NewCommentService wires the comment flow. With a nil publisher new comments are
// broadcast directly instead of going through the broker.
func NewCommentService(
	commentRepo repository.CommentRepository,
	contentRepo repository.ContentRepository,
	registry *model.Registry,
	publisher EventPublisher,
	broadcaster Broadcaster,
) CommentService {
	return &commentService{
		commentRepo: commentRepo,
		contentRepo: contentRepo,
		registry:    registry,
		publisher:   publisher,
		broadcaster: broadcaster,
	}
}

func (s *commentService) resolveTarget(ctx context.Context, tag string, id uint) (*model.Variant, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	if _, err := s.contentRepo.FindByID(ctx, v, id, true); err != nil {
		return nil, targetError(err, "load comment target", v.Tag, id)
	}
	return v, nil
}

// List returns the thread of a content item.
func (s *commentService) List(ctx context.Context, tag string, id uint) ([]*model.Comment, error) {
	v, err := s.resolveTarget(ctx, tag, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.FindThread(ctx, v.Tag, id)
	if err != nil {
		return nil, apperror.Storage("load comment thread", err)
	}
	return comments, nil
}

// Create stores a comment or reply. The parent must be an active comment on the
// same item.
func (s *commentService) Create(ctx context.Context, req CreateCommentRequest, identity model.Identity) (*model.Comment, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperror.Validation("Content is required")
	}

	v, err := s.resolveTarget(ctx, req.VariantTag(), req.ID)
	if err != nil {
		return nil, err
	}

	if req.Parent != nil {
		parent, err := s.commentRepo.FindByID(ctx, *req.Parent)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Validation("Parent comment not found")
		}
		if err != nil {
			return nil, apperror.Storage("load parent comment", err)
		}
		if parent.Variant != v.Tag || parent.ObjectID != req.ID {
			return nil, apperror.Validation("Parent comment belongs to another item")
		}
	}

	nickname := strings.TrimSpace(req.Nickname)
	if nickname == "" {
		nickname = identity.DefaultNickname()
	}

	comment := &model.Comment{
		Variant:  v.Tag,
		ObjectID: req.ID,
		Nickname: nickname,
		Content:  content,
		ParentID: req.Parent,
	}
	if identity.IsAuthenticated() {
		userID := identity.UserID
		comment.UserID = &userID
	} else if identity.SessionKey != "" {
		session := identity.SessionKey
		comment.SessionKey = &session
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, apperror.Storage("create comment", err)
	}
	comment.Replies = []*model.Comment{}

	s.announce(ctx, comment)
	return comment, nil
}

// announce hands the new comment to the broker, or straight to the room when the
// broker is missing or refuses it.
func (s *commentService) announce(ctx context.Context, comment *model.Comment) {
	event := CommentEvent{Variant: comment.Variant, ID: comment.ObjectID, Comment: comment}

	if s.publisher != nil {
		body, err := json.Marshal(event)
		if err == nil {
			err = s.publisher.Publish(ctx, CommentExchange, CommentRoutingKey, body)
		}
		if err == nil {
			return
		}
		logger.Warn().Err(err).Uint("comment_id", comment.ID).Msg("failed to publish comment event, broadcasting directly")
	}

	broadcast(s.broadcaster, event.Variant, event.ID, "comment", event.Comment)
}

// Delete hides a comment and its replies. Only the author or staff may do it.
func (s *commentService) Delete(ctx context.Context, commentID uint, identity model.Identity) error {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Comment not found")
	}
	if err != nil {
		return apperror.Storage("load comment", err)
	}

	if !identity.IsStaff && !comment.OwnedBy(identity) {
		return apperror.Forbidden("You can only delete your own comments")
	}

	if err := s.commentRepo.Deactivate(ctx, comment); err != nil {
		return apperror.Storage("deactivate comment", err)
	}
	return nil
}
