package app

import (
	"net/http"
	"strconv"

	"inkwell/internal/service"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
)

type ContactHandler struct {
	contactService service.ContactService
}

func NewContactHandler(contactService service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Submit stores a message from the contact form
// POST /api/v1/contact
func (h *ContactHandler) Submit(c *gin.Context) {
	var req service.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	contact, err := h.contactService.Submit(c.Request.Context(), req)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Message received", contact)
}

// List returns contact messages for staff
// GET /api/v1/contact
func (h *ContactHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	contacts, total, err := h.contactService.List(c.Request.Context(), limit, offset)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Messages retrieved successfully", gin.H{
		"results": contacts,
		"count":   total,
	})
}
