package app

import (
	"net/http"

	"inkwell/internal/middleware"
	"inkwell/internal/service"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
)

type ReactionHandler struct {
	reactionService service.ReactionService
	identity        *middleware.IdentityResolver
}

func NewReactionHandler(reactionService service.ReactionService, identity *middleware.IdentityResolver) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
		identity:        identity,
	}
}

// Toggle applies one like or dislike press
// POST /api/v1/reactions/toggle
func (h *ReactionHandler) Toggle(c *gin.Context) {
	var req service.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.reactionService.Toggle(c.Request.Context(), req, h.identity.Resolve(c))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Reaction updated", result)
}
