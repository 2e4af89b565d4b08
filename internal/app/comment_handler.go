package app

import (
	"net/http"
	"strconv"

	"inkwell/internal/middleware"
	"inkwell/internal/service"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	commentService service.CommentService
	identity       *middleware.IdentityResolver
}

func NewCommentHandler(commentService service.CommentService, identity *middleware.IdentityResolver) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		identity:       identity,
	}
}

// GetComments returns the thread of one item
// GET /api/v1/comments?variant=&id=
func (h *CommentHandler) GetComments(c *gin.Context) {
	variant := c.Query("variant")
	if variant == "" {
		variant = c.Query("model")
	}
	id, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if variant == "" || err != nil {
		util.BadRequest(c, "variant and id are required")
		return
	}

	comments, err := h.commentService.List(c.Request.Context(), variant, uint(id))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comments retrieved successfully", comments)
}

// CreateComment handles comment creation
// POST /api/v1/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	comment, err := h.commentService.Create(c.Request.Context(), req, h.identity.Resolve(c))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Comment created successfully", comment)
}

// DeleteComment hides a comment and its replies
// DELETE /api/v1/comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.Delete(c.Request.Context(), id, middleware.CurrentIdentity(c)); err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Comment deleted successfully", nil)
}
