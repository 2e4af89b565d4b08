package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"strings"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/util"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	searchPerType   = 3
)

// Orderings accepted by the list endpoint, "-" meaning descending.
var orderings = map[string]string{
	"created_at":   "created_at ASC",
	"-created_at":  "created_at DESC",
	"updated_at":   "updated_at ASC",
	"-updated_at":  "updated_at DESC",
	"total_views":  "total_views ASC",
	"-total_views": "total_views DESC",
	"likes":        "likes ASC",
	"-likes":       "likes DESC",
}

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file *util.FileData, subfolder string) (string, error)
}

type ContentService interface {
	// Get returns one item and counts the view. Hidden items are NotFound unless the
	// identity is staff.
	Get(ctx context.Context, tag string, id uint, identity model.Identity, clientIP string) (*ContentDetail, error)
	List(ctx context.Context, tag string, params ListParams, identity model.Identity) (*ContentPage, error)
	NewItem(tag string) (model.ContentItem, error)
	Create(ctx context.Context, tag string, item model.ContentItem) (model.ContentItem, error)
	Update(ctx context.Context, tag string, id uint, item model.ContentItem) (model.ContentItem, error)
	Delete(ctx context.Context, tag string, id uint) error
	UploadCover(ctx context.Context, tag string, id uint, file *util.FileData) (model.ContentItem, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
	Categories(ctx context.Context) ([]model.BookReviewCategory, error)
}

type ListParams struct {
	Limit    int
	Offset   int
	Ordering string
	Search   string
	Filters  map[string]string
}

type ContentPage struct {
	Count   int64               `json:"count"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
	Results []model.ContentItem `json:"results"`
}

// ContentDetail renders as the item's own fields plus type, user_reaction and
// comment_count.
type ContentDetail struct {
	Type         string
	Item         model.ContentItem
	UserReaction string
	CommentCount int64
}

func (d ContentDetail) MarshalJSON() ([]byte, error) {
	var reaction interface{}
	if d.UserReaction != "" {
		reaction = d.UserReaction
	}
	return withFields(d.Item, map[string]interface{}{
		"type":          d.Type,
		"user_reaction": reaction,
		"comment_count": d.CommentCount,
	})
}

type SearchResult struct {
	Count   int         `json:"count"`
	Results []SearchHit `json:"results"`
}

// SearchHit renders as the item's own fields plus type.
type SearchHit struct {
	Type string
	Item model.ContentItem
}

func (h SearchHit) MarshalJSON() ([]byte, error) {
	return withFields(h.Item, map[string]interface{}{"type": h.Type})
}

func withFields(item interface{}, extra map[string]interface{}) ([]byte, error) {
	raw, err := json.Marshal(item)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	for k, v := range extra {
		fields[k] = v
	}
	return json.Marshal(fields)
}

type contentService struct {
	contentRepo     repository.ContentRepository
	registry        *model.Registry
	viewService     ViewService
	reactionService ReactionService
	commentRepo     repository.CommentRepository
	uploader        ImageUploader
}

// NewContentService wires content reads and writes. uploader may be nil, which
// disables cover uploads.
func NewContentService(
	contentRepo repository.ContentRepository,
	registry *model.Registry,
	viewService ViewService,
	reactionService ReactionService,
	commentRepo repository.CommentRepository,
	uploader ImageUploader,
) ContentService {
	return &contentService{
		contentRepo:     contentRepo,
		registry:        registry,
		viewService:     viewService,
		reactionService: reactionService,
		commentRepo:     commentRepo,
		uploader:        uploader,
	}
}

func (s *contentService) Get(ctx context.Context, tag string, id uint, identity model.Identity, clientIP string) (*ContentDetail, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}

	if _, err := s.contentRepo.FindByID(ctx, v, id, identity.IsStaff); err != nil {
		return nil, targetError(err, "load item", v.Tag, id)
	}

	item, err := s.viewService.RecordView(ctx, v, id, clientIP)
	if err != nil {
		return nil, err
	}

	// best effort, like the current reaction
	comments, err := s.commentRepo.CountByTarget(ctx, v.Tag, id)
	if err != nil {
		logger.Warn().Err(err).Str("variant", v.Tag).Uint("id", id).Msg("failed to count comments")
	}

	return &ContentDetail{
		Type:         v.Tag,
		Item:         item,
		UserReaction: s.reactionService.CurrentReaction(ctx, v.Tag, id, identity),
		CommentCount: comments,
	}, nil
}

func (s *contentService) List(ctx context.Context, tag string, params ListParams, identity model.Identity) (*ContentPage, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	filters := map[string]interface{}{}
	for param, raw := range params.Filters {
		column, ok := v.FilterFields[param]
		if !ok || raw == "" {
			continue
		}
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, apperror.Validation("Invalid " + param)
		}
		filters[column] = uint(value)
	}

	items, total, err := s.contentRepo.List(ctx, v, repository.ListQuery{
		Limit:         limit,
		Offset:        offset,
		Order:         orderings[params.Ordering],
		Filters:       filters,
		Search:        strings.TrimSpace(params.Search),
		IncludeHidden: identity.IsStaff,
	})
	if err != nil {
		return nil, apperror.Storage("list "+v.Tag, err)
	}

	return &ContentPage{Count: total, Limit: limit, Offset: offset, Results: items}, nil
}

func (s *contentService) NewItem(tag string) (model.ContentItem, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	return v.New(), nil
}

func (s *contentService) Create(ctx context.Context, tag string, item model.ContentItem) (model.ContentItem, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.GetTitle()) == "" {
		return nil, apperror.Validation("Title is required")
	}

	if err := s.contentRepo.Create(ctx, item); err != nil {
		return nil, apperror.Storage("create "+v.Tag, err)
	}
	logger.Info().Str("variant", v.Tag).Uint("id", item.GetID()).Msg("content created")
	return item, nil
}

func (s *contentService) Update(ctx context.Context, tag string, id uint, item model.ContentItem) (model.ContentItem, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(item.GetTitle()) == "" {
		return nil, apperror.Validation("Title is required")
	}

	updated, err := s.contentRepo.Update(ctx, v, id, item)
	if err != nil {
		return nil, targetError(err, "update "+v.Tag, v.Tag, id)
	}
	return updated, nil
}

func (s *contentService) Delete(ctx context.Context, tag string, id uint) error {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return err
	}
	if err := s.contentRepo.Delete(ctx, v, id); err != nil {
		return targetError(err, "delete "+v.Tag, v.Tag, id)
	}
	logger.Info().Str("variant", v.Tag).Uint("id", id).Msg("content deleted")
	return nil
}

func (s *contentService) UploadCover(ctx context.Context, tag string, id uint, file *util.FileData) (model.ContentItem, error) {
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	if !v.HasImage {
		return nil, apperror.Validation(v.Label + " has no cover image")
	}
	if s.uploader == nil {
		return nil, apperror.Unavailable("Image uploads are not configured")
	}

	if _, err := s.contentRepo.FindByID(ctx, v, id, true); err != nil {
		return nil, targetError(err, "load item", v.Tag, id)
	}

	url, err := s.uploader.UploadImage(ctx, file, v.Tag)
	if err != nil {
		logger.Error().Err(err).Str("variant", v.Tag).Uint("id", id).Msg("cover upload failed")
		return nil, apperror.Unavailable("Image upload failed")
	}

	if err := s.contentRepo.SetImage(ctx, v, id, url); err != nil {
		return nil, targetError(err, "set image", v.Tag, id)
	}

	item, err := s.contentRepo.FindByID(ctx, v, id, true)
	if err != nil {
		return nil, targetError(err, "reload item", v.Tag, id)
	}
	return item, nil
}

// Search looks for query in a fixed set of variants, takes at most three published
// hits from each and returns them newest first.
func (s *contentService) Search(ctx context.Context, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	result := &SearchResult{Results: []SearchHit{}}
	if query == "" {
		return result, nil
	}

	for _, target := range model.GlobalSearch {
		v, ok := s.registry.Lookup(target.Tag)
		if !ok {
			continue
		}
		items, err := s.contentRepo.Search(ctx, v, target.Fields, query, searchPerType)
		if err != nil {
			return nil, apperror.Storage("search "+v.Tag, err)
		}
		for _, item := range items {
			result.Results = append(result.Results, SearchHit{Type: target.Type, Item: item})
		}
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		return result.Results[i].Item.GetUpdatedAt().After(result.Results[j].Item.GetUpdatedAt())
	})
	result.Count = len(result.Results)
	return result, nil
}

func (s *contentService) Categories(ctx context.Context) ([]model.BookReviewCategory, error) {
	categories, err := s.contentRepo.ListCategories(ctx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.Storage("list categories", err)
	}
	if categories == nil {
		categories = []model.BookReviewCategory{}
	}
	return categories, nil
}
