package app

import (
	"net/http"

	"inkwell/internal/middleware"
	"inkwell/internal/service"
	"inkwell/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register handles user registration
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusCreated, "Registration successful", res)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationErrors(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "Login successful", res)
}

// GetMe returns the authenticated user
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.authService.Me(c.Request.Context(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		util.HandleError(c, err)
		return
	}

	util.SuccessResponse(c, http.StatusOK, "User retrieved successfully", user)
}
