package service

import (
	"context"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

type ReactionService interface {
	Toggle(ctx context.Context, req ToggleReactionRequest, identity model.Identity) (*model.ToggleResult, error)
	CurrentReaction(ctx context.Context, variant string, id uint, identity model.Identity) string
}

// ToggleReactionRequest is the body of POST /reactions/toggle. Model is the legacy
// name of Variant and is used when Variant is empty.
type ToggleReactionRequest struct {
	Variant string `json:"variant"`
	Model   string `json:"model"`
	ID      uint   `json:"id"`
	Type    string `json:"type" validate:"required,oneof=like dislike"`
}

func (r ToggleReactionRequest) VariantTag() string {
	if r.Variant != "" {
		return r.Variant
	}
	return r.Model
}

type reactionService struct {
	reactionRepo repository.ReactionRepository
	registry     *model.Registry
	broadcaster  Broadcaster
}

func NewReactionService(
	reactionRepo repository.ReactionRepository,
	registry *model.Registry,
	broadcaster Broadcaster,
) ReactionService {
	return &reactionService{
		reactionRepo: reactionRepo,
		registry:     registry,
		broadcaster:  broadcaster,
	}
}

// Toggle validates the kind and the identity before touching storage, then runs
// the toggle.
func (s *reactionService) Toggle(ctx context.Context, req ToggleReactionRequest, identity model.Identity) (*model.ToggleResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperror.Validation("Invalid type")
	}
	if !identity.IsAuthenticated() && identity.SessionKey == "" {
		return nil, apperror.Validation("Identity required")
	}

	tag := req.VariantTag()
	v, err := resolveVariant(s.registry, tag)
	if err != nil {
		return nil, err
	}
	if req.ID == 0 {
		return nil, apperror.ItemNotFound(v.Tag, 0)
	}

	result, err := s.reactionRepo.Toggle(ctx, v, req.ID, identity, req.Type)
	if err != nil {
		return nil, targetError(err, "toggle reaction", v.Tag, req.ID)
	}

	logger.Debug().
		Str("variant", v.Tag).
		Uint("id", req.ID).
		Str("owner", identity.Key()).
		Str("action", result.Action).
		Msg("reaction toggled")

	broadcast(s.broadcaster, v.Tag, req.ID, "reactions", map[string]int64{
		"likes":    result.Likes,
		"dislikes": result.Dislikes,
	})
	return result, nil
}

// CurrentReaction is best effort: a lookup failure reads as no reaction.
func (s *reactionService) CurrentReaction(ctx context.Context, variant string, id uint, identity model.Identity) string {
	if !identity.IsAuthenticated() && identity.SessionKey == "" {
		return ""
	}
	kind, err := s.reactionRepo.FindKind(ctx, variant, id, identity)
	if err != nil {
		logger.Warn().Err(err).Str("variant", variant).Uint("id", id).Msg("failed to load current reaction")
		return ""
	}
	return kind
}
