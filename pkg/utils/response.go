package utils

import (
	"github.com/gin-gonic/gin"

	appErrors "user-registration/pkg/errors"
)

// Response is the envelope of every API reply.
type Response struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	User    interface{}            `json:"user,omitempty"`
	Errors  []appErrors.FieldError `json:"errors,omitempty"`
	Detail  string                 `json:"detail,omitempty"`
}

func SuccessResponse(c *gin.Context, status int, message string, user interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		User:    user,
	})
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
	})
}

func ValidationErrorResponse(c *gin.Context, status int, message string, fields []appErrors.FieldError) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  fields,
	})
}

// InternalErrorResponse hides err unless detail is requested, which only
// non-production environments do.
func InternalErrorResponse(c *gin.Context, status int, message string, err error, detail bool) {
	resp := Response{
		Success: false,
		Message: message,
	}
	if detail && err != nil {
		resp.Detail = err.Error()
	}
	c.JSON(status, resp)
}
