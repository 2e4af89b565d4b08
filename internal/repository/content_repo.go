package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/model"

	"gorm.io/gorm"
)

// ListQuery narrows a variant listing. Order is a trusted column expression.
type ListQuery struct {
	Limit         int
	Offset        int
	Order         string
	Filters       map[string]interface{}
	Search        string
	IncludeHidden bool
}

type ContentRepository interface {
	FindByID(ctx context.Context, v *model.Variant, id uint, includeHidden bool) (model.ContentItem, error)
	List(ctx context.Context, v *model.Variant, q ListQuery) ([]model.ContentItem, int64, error)
	Search(ctx context.Context, v *model.Variant, fields []string, term string, limit int) ([]model.ContentItem, error)
	IncrementViews(ctx context.Context, v *model.Variant, id uint, now time.Time) error
	ResetStaleTodayViews(ctx context.Context, v *model.Variant, dayStart time.Time) (int64, error)
	Create(ctx context.Context, item model.ContentItem) error
	Update(ctx context.Context, v *model.Variant, id uint, item model.ContentItem) (model.ContentItem, error)
	Delete(ctx context.Context, v *model.Variant, id uint) error
	SetImage(ctx context.Context, v *model.Variant, id uint, url string) error
	ListCategories(ctx context.Context) ([]model.BookReviewCategory, error)
}

type contentRepository struct {
	db *gorm.DB
}

// Columns that only the counter paths may write.
var systemColumns = []string{"id", "likes", "dislikes", "total_views", "today_views", "last_view_date", "created_at"}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func visibleTo(v *model.Variant, includeHidden bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if includeHidden {
			return db
		}
		for _, column := range v.VisibleColumns {
			db = db.Where(column+" = ?", true)
		}
		return db
	}
}

// likeEscaper makes a search term match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func matchAny(fields []string, term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" || len(fields) == 0 {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		clauses := make([]string, len(fields))
		args := make([]interface{}, len(fields))
		for i, field := range fields {
			clauses[i] = fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", field)
			args[i] = pattern
		}
		return db.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
}

// FindByID returns gorm.ErrRecordNotFound for missing rows and, unless includeHidden,
// for rows the public may not see.
func (r *contentRepository) FindByID(ctx context.Context, v *model.Variant, id uint, includeHidden bool) (model.ContentItem, error) {
	item := v.New()
	err := r.db.WithContext(ctx).Scopes(visibleTo(v, includeHidden)).Where("id = ?", id).First(item).Error
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns one page and the total count matching the same filters.
func (r *contentRepository) List(ctx context.Context, v *model.Variant, q ListQuery) ([]model.ContentItem, int64, error) {
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(v.New()).
			Scopes(visibleTo(v, q.IncludeHidden), matchAny(v.SearchFields, q.Search))
		for column, value := range q.Filters {
			query = query.Where(column+" = ?", value)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := q.Order
	if order == "" {
		order = "updated_at DESC"
	}

	list := v.NewList()
	err := filtered().Order(order).Order("id DESC").Limit(q.Limit).Offset(q.Offset).Find(list).Error
	if err != nil {
		return nil, 0, err
	}
	return v.Items(list), total, nil
}

// Search matches published rows whose fields contain term, newest first.
func (r *contentRepository) Search(ctx context.Context, v *model.Variant, fields []string, term string, limit int) ([]model.ContentItem, error) {
	list := v.NewList()
	err := r.db.WithContext(ctx).Model(v.New()).
		Scopes(visibleTo(v, false), matchAny(fields, term)).
		Order("updated_at DESC").
		Limit(limit).
		Find(list).Error
	if err != nil {
		return nil, err
	}
	return v.Items(list), nil
}

// IncrementViews bumps total_views and today_views in one statement. today_views
// restarts at 1 when the last view happened before dayStart of now.
func (r *contentRepository) IncrementViews(ctx context.Context, v *model.Variant, id uint, now time.Time) error {
	now = now.UTC()
	result := r.db.WithContext(ctx).Model(v.New()).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"total_views":    gorm.Expr("total_views + 1"),
		"today_views":    gorm.Expr("CASE WHEN last_view_date >= ? THEN today_views + 1 ELSE 1 END", startOfDay(now)),
		"last_view_date": now,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ResetStaleTodayViews zeroes today_views on rows not viewed since dayStart.
func (r *contentRepository) ResetStaleTodayViews(ctx context.Context, v *model.Variant, dayStart time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(v.New()).
		Where("today_views > 0 AND (last_view_date IS NULL OR last_view_date < ?)", dayStart.UTC()).
		UpdateColumn("today_views", 0)
	return result.RowsAffected, result.Error
}

func (r *contentRepository) Create(ctx context.Context, item model.ContentItem) error {
	item.ResetSystemFields()
	return r.db.WithContext(ctx).Create(item).Error
}

// Update overwrites every editable column of id with the values in item.
func (r *contentRepository) Update(ctx context.Context, v *model.Variant, id uint, item model.ContentItem) (model.ContentItem, error) {
	var updated model.ContentItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := v.New()
		if err := tx.Where("id = ?", id).First(existing).Error; err != nil {
			return err
		}

		item.ResetSystemFields()
		if err := tx.Model(existing).Select("*").Omit(systemColumns...).Updates(item).Error; err != nil {
			return err
		}

		updated = v.New()
		return tx.Where("id = ?", id).First(updated).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the row together with the reactions and comments that target it.
func (r *contentRepository) Delete(ctx context.Context, v *model.Variant, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(v.New())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("variant = ? AND object_id = ?", v.Tag, id).Delete(&model.Reaction{}).Error; err != nil {
			return err
		}
		return tx.Where("variant = ? AND object_id = ?", v.Tag, id).Delete(&model.Comment{}).Error
	})
}

func (r *contentRepository) SetImage(ctx context.Context, v *model.Variant, id uint, url string) error {
	result := r.db.WithContext(ctx).Model(v.New()).Where("id = ?", id).UpdateColumn("image", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *contentRepository) ListCategories(ctx context.Context) ([]model.BookReviewCategory, error) {
	var categories []model.BookReviewCategory
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
