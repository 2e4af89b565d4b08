package service

import (
	"errors"

	"inkwell/internal/apperror"
	"inkwell/internal/model"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

// Broadcaster pushes a message to everyone watching a room.
type Broadcaster interface {
	BroadcastToRoom(room string, message interface{})
}

func resolveVariant(registry *model.Registry, tag string) (*model.Variant, error) {
	v, ok := registry.Lookup(tag)
	if !ok {
		return nil, apperror.UnknownVariant(tag)
	}
	return v, nil
}

// targetError turns a repository error on (variant, id) into the caller-facing kind.
func targetError(err error, op, tag string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ItemNotFound(tag, id)
	}
	return apperror.Storage(op, err)
}

func broadcast(b Broadcaster, variant string, id uint, event string, payload interface{}) {
	if b == nil {
		return
	}
	b.BroadcastToRoom(model.RoomKey(variant, id), map[string]interface{}{
		"type":    event,
		"variant": variant,
		"id":      id,
		"payload": payload,
	})
}
