package repository

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReactionRepository interface {
	// Toggle applies one like/dislike press for identity on (v, id). The reaction row
	// and the counters change in the same transaction.
	Toggle(ctx context.Context, v *model.Variant, id uint, identity model.Identity, kind string) (*model.ToggleResult, error)
	FindKind(ctx context.Context, variant string, id uint, identity model.Identity) (string, error)
	CountByTarget(ctx context.Context, variant string, id uint) (map[string]int64, error)
}

type reactionRepository struct {
	db *gorm.DB
}

func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

func (r *reactionRepository) Toggle(ctx context.Context, v *model.Variant, id uint, identity model.Identity, kind string) (*model.ToggleResult, error) {
	result := &model.ToggleResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock on the target serializes toggles on the same item.
		target := v.New()
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", id).
			First(target).Error
		if err != nil {
			return err
		}

		var existing model.Reaction
		err = tx.Where("owner_key = ? AND variant = ? AND object_id = ?", identity.Key(), v.Tag, id).
			Take(&existing).Error
		found := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		deltas := map[string]int{}
		switch {
		case !found:
			reaction := newReaction(identity, v.Tag, id, kind)
			if err := tx.Create(reaction).Error; err != nil {
				return err
			}
			deltas[counterColumn(kind)] = 1
			result.Action = model.ActionCreated
			result.Current = &reaction.Kind

		case existing.Kind == kind:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			deltas[counterColumn(kind)] = -1
			result.Action = model.ActionRemoved

		default:
			previous := existing.Kind
			if err := tx.Model(&existing).Update("kind", kind).Error; err != nil {
				return err
			}
			deltas[counterColumn(previous)] = -1
			deltas[counterColumn(kind)] = 1
			result.Action = model.ActionSwitched
			current := kind
			result.Current = &current
		}

		if err := applyCounterDeltas(tx, v, id, deltas); err != nil {
			return err
		}

		counters := v.New()
		if err := tx.Select("likes", "dislikes").Where("id = ?", id).First(counters).Error; err != nil {
			return err
		}
		result.Likes = counters.GetCounters().Likes
		result.Dislikes = counters.GetCounters().Dislikes
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FindKind returns the identity's current reaction on the target, or "".
func (r *reactionRepository) FindKind(ctx context.Context, variant string, id uint, identity model.Identity) (string, error) {
	var reaction model.Reaction
	err := r.db.WithContext(ctx).Select("kind").
		Where("owner_key = ? AND variant = ? AND object_id = ?", identity.Key(), variant, id).
		Take(&reaction).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reaction.Kind, nil
}

// CountByTarget tallies reaction rows per kind. Counters on the content row must
// always agree with it.
func (r *reactionRepository) CountByTarget(ctx context.Context, variant string, id uint) (map[string]int64, error) {
	var rows []struct {
		Kind  string
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.Reaction{}).
		Select("kind, count(*) as count").
		Where("variant = ? AND object_id = ?", variant, id).
		Group("kind").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{model.ReactionLike: 0, model.ReactionDislike: 0}
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

func newReaction(identity model.Identity, variant string, id uint, kind string) *model.Reaction {
	reaction := &model.Reaction{
		OwnerKey: identity.Key(),
		Variant:  variant,
		ObjectID: id,
		Kind:     kind,
	}
	if identity.IsAuthenticated() {
		userID := identity.UserID
		reaction.UserID = &userID
	} else {
		session := identity.SessionKey
		reaction.SessionKey = &session
	}
	return reaction
}

func counterColumn(kind string) string {
	if kind == model.ReactionDislike {
		return "dislikes"
	}
	return "likes"
}

// applyCounterDeltas moves counters with column expressions so concurrent writers
// never overwrite each other. Decrements stop at zero.
func applyCounterDeltas(tx *gorm.DB, v *model.Variant, id uint, deltas map[string]int) error {
	if len(deltas) == 0 {
		return nil
	}

	columns := make(map[string]interface{}, len(deltas))
	for column, delta := range deltas {
		if delta >= 0 {
			columns[column] = gorm.Expr(fmt.Sprintf("%s + ?", column), delta)
		} else {
			columns[column] = gorm.Expr(fmt.Sprintf("CASE WHEN %s >= ? THEN %s - ? ELSE 0 END", column, column), -delta, -delta)
		}
	}

	result := tx.Model(v.New()).Where("id = ?", id).UpdateColumns(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
