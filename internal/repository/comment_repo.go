package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/util"

	"gorm.io/gorm"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	FindByID(ctx context.Context, id uint) (*model.Comment, error)
	// FindThread returns the active top-level comments of a target, newest first,
	// each carrying its active replies at every depth, oldest first.
	FindThread(ctx context.Context, variant string, objectID uint) ([]*model.Comment, error)
	CountByTarget(ctx context.Context, variant string, objectID uint) (int64, error)
	Deactivate(ctx context.Context, comment *model.Comment) error
}

type commentRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	commentThreadCachePrefix = "comment:thread:"
	commentCacheExpiration   = 15 * time.Minute
)

func NewCommentRepository(db *gorm.DB, redis *util.RedisClient) CommentRepository {
	return &commentRepository{
		db:    db,
		redis: redis,
	}
}

// Create creates a new comment and invalidates the thread cache
func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	comment.IsActive = true
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return err
	}

	r.invalidateThreadCache(ctx, comment.Variant, comment.ObjectID)
	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id uint) (*model.Comment, error) {
	var comment model.Comment
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *commentRepository) FindThread(ctx context.Context, variant string, objectID uint) ([]*model.Comment, error) {
	cacheKey := threadCacheKey(variant, objectID)
	if cached, ok := r.getThreadFromCache(ctx, cacheKey); ok {
		return cached, nil
	}

	db := r.db.WithContext(ctx)

	var roots []*model.Comment
	err := db.Where("variant = ? AND object_id = ? AND parent_id IS NULL AND is_active = ?", variant, objectID, true).
		Order("created_at DESC").Order("id DESC").
		Find(&roots).Error
	if err != nil {
		return nil, err
	}

	// One query per depth level. Replies under an inactive comment are never reached.
	level := roots
	for len(level) > 0 {
		byID := make(map[uint]*model.Comment, len(level))
		ids := make([]uint, 0, len(level))
		for _, c := range level {
			c.Replies = []*model.Comment{}
			byID[c.ID] = c
			ids = append(ids, c.ID)
		}

		var children []*model.Comment
		err := db.Where("variant = ? AND object_id = ? AND parent_id IN ? AND is_active = ?", variant, objectID, ids, true).
			Order("created_at ASC").Order("id ASC").
			Find(&children).Error
		if err != nil {
			return nil, err
		}

		for _, child := range children {
			parent := byID[*child.ParentID]
			parent.Replies = append(parent.Replies, child)
		}
		level = children
	}

	if roots == nil {
		roots = []*model.Comment{}
	}
	r.cacheThread(ctx, cacheKey, roots)
	return roots, nil
}

func (r *commentRepository) CountByTarget(ctx context.Context, variant string, objectID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("variant = ? AND object_id = ? AND is_active = ?", variant, objectID, true).
		Count(&count).Error
	return count, err
}

// Deactivate soft deletes a comment. Its replies stay stored but become unreachable.
func (r *commentRepository) Deactivate(ctx context.Context, comment *model.Comment) error {
	err := r.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", comment.ID).
		UpdateColumn("is_active", false).Error
	if err != nil {
		return err
	}

	comment.IsActive = false
	r.invalidateThreadCache(ctx, comment.Variant, comment.ObjectID)
	return nil
}

func threadCacheKey(variant string, objectID uint) string {
	return fmt.Sprintf("%s%s:%d", commentThreadCachePrefix, variant, objectID)
}

// Cache helpers
func (r *commentRepository) cacheThread(ctx context.Context, key string, comments []*model.Comment) {
	if r.redis == nil {
		return
	}

	commentsJSON, err := json.Marshal(comments)
	if err != nil {
		return
	}

	if err := r.redis.Set(ctx, key, string(commentsJSON), commentCacheExpiration); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to cache comment thread")
	}
}

func (r *commentRepository) getThreadFromCache(ctx context.Context, key string) ([]*model.Comment, bool) {
	if r.redis == nil {
		return nil, false
	}

	cached, err := r.redis.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	var comments []*model.Comment
	if err := json.Unmarshal([]byte(cached), &comments); err != nil {
		return nil, false
	}
	return comments, true
}

func (r *commentRepository) invalidateThreadCache(ctx context.Context, variant string, objectID uint) {
	if r.redis == nil {
		return
	}
	if err := r.redis.Delete(ctx, threadCacheKey(variant, objectID)); err != nil {
		logger.Warn().Err(err).Str("variant", variant).Uint("object_id", objectID).Msg("failed to invalidate comment thread cache")
	}
}
