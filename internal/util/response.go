package util

import (
	"errors"
	"net/http"

	"inkwell/internal/apperror"
	"inkwell/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, status int, message string, errs interface{}) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func BadRequest(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusBadRequest, message, nil)
}

func Unauthorized(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, message, nil)
}

func Forbidden(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusForbidden, message, nil)
}

func NotFound(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, message, nil)
}

func InternalServerError(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, message, nil)
}

// ValidationErrors renders binding failures as field -> rule.
func ValidationErrors(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		ErrorResponse(c, http.StatusBadRequest, "Validation failed", fields)
		return
	}
	BadRequest(c, "Invalid request body")
}

// HandleError maps an apperror to its status. Anything else is a 500.
func HandleError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled error")
		InternalServerError(c, "Internal server error")
		return
	}

	switch appErr.Kind {
	case apperror.KindStorage:
		logger.Error().Err(appErr.Err).Str("op", appErr.Reason).Str("path", c.FullPath()).Msg("storage failure")
	case apperror.KindNotFound:
		if appErr.Reason != "" {
			logger.Debug().Str("reason", appErr.Reason).Str("path", c.FullPath()).Msg("not found")
		}
	}

	ErrorResponse(c, appErr.Code, appErr.Message, nil)
}
