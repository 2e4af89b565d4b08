package app

import (
	"net/http"
	"strconv"

	"inkwell/internal/middleware"
	"inkwell/internal/service"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
)

type ContentHandler struct {
	contentService service.ContentService
}

func NewContentHandler(contentService service.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// query parameters that are not list filters
var listParams = map[string]bool{"limit": true, "offset": true, "ordering": true, "search": true}

// List handles a page of one variant
// GET /api/v1/content/:variant
func (h *ContentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	filters := map[string]string{}
	for key, values := range c.Request.URL.Query() {
		if !listParams[key] && len(values) > 0 {
			filters[key] = values[0]
		}
	}

	page, err := h.contentService.List(c.Request.Context(), c.Param("variant"), service.ListParams{
		Limit:    limit,
		Offset:   offset,
		Ordering: c.DefaultQuery("ordering", "-updated_at"),
		Search:   c.Query("search"),
		Filters:  filters,
	}, middleware.CurrentIdentity(c))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Content retrieved successfully", page)
}

// Get returns one item and counts the view
// GET /api/v1/content/:variant/:id
func (h *ContentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.contentService.Get(c.Request.Context(), c.Param("variant"), id,
		middleware.CurrentIdentity(c), util.ClientIP(c.Request))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Content retrieved successfully", detail)
}

// Create handles staff content creation
// POST /api/v1/content/:variant
func (h *ContentHandler) Create(c *gin.Context) {
	item, err := h.contentService.NewItem(c.Param("variant"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	if err := c.ShouldBindJSON(item); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	created, err := h.contentService.Create(c.Request.Context(), c.Param("variant"), item)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Content created successfully", created)
}

// Update replaces the editable fields of an item
// PUT /api/v1/content/:variant/:id
func (h *ContentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	item, err := h.contentService.NewItem(c.Param("variant"))
	if err != nil {
		util.HandleError(c, err)
		return
	}
	if err := c.ShouldBindJSON(item); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	updated, err := h.contentService.Update(c.Request.Context(), c.Param("variant"), id, item)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Content updated successfully", updated)
}

// Delete removes an item with its reactions and comments
// DELETE /api/v1/content/:variant/:id
func (h *ContentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.contentService.Delete(c.Request.Context(), c.Param("variant"), id); err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Content deleted successfully", nil)
}

// UploadCover stores the multipart "file" as the item's image
// POST /api/v1/content/:variant/:id/cover
func (h *ContentHandler) UploadCover(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		util.BadRequest(c, "Image file is required")
		return
	}
	src, err := header.Open()
	if err != nil {
		util.BadRequest(c, "Cannot read image file")
		return
	}
	defer src.Close()

	file, err := util.ReadFileFromReader(src, header.Filename)
	if err != nil {
		util.BadRequest(c, err.Error())
		return
	}

	item, err := h.contentService.UploadCover(c.Request.Context(), c.Param("variant"), id, file)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Cover uploaded successfully", item)
}

// Search looks across news, book reviews, papers and opinions
// GET /api/v1/search?q=
func (h *ContentHandler) Search(c *gin.Context) {
	result, err := h.contentService.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Search completed", result)
}

// GET /api/v1/categories
func (h *ContentHandler) Categories(c *gin.Context) {
	categories, err := h.contentService.Categories(c.Request.Context())
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Categories retrieved successfully", categories)
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		util.NotFound(c, "Object not found")
		return 0, false
	}
	return uint(id), true
}
