package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goattech/giftflow/pkg/common"
	"github.com/goattech/giftflow/pkg/validation"
)

// ValidateJSON binds the JSON body to req and validates it against its
// validate tags. Helper to be used within handlers.
func ValidateJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return err
	}

	return validation.ValidateStruct(req)
}

// RespondWithValidationError sends a standardized 400 validation response
func RespondWithValidationError(c *gin.Context, err error) {
	if valErr, ok := err.(*validation.ValidationError); ok {
		c.JSON(http.StatusBadRequest, common.Response{
			Success: false,
			Error:   &common.ErrorBody{Code: common.CodeValidation, Message: valErr.Error()},
		})
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, "invalid request body")
}
