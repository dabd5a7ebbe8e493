package handler

import (
	"net/http"

	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.UseJSONFieldNames(v)
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
	}
}

// bindJSON binds the request body into req, answering 422 with field
// errors when it fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondInvalid(c, validation.FromBinding(err))
		return false
	}
	return true
}

func respondInvalid(c *gin.Context, verr *validation.Error) {
	c.JSON(http.StatusUnprocessableEntity, verr)
}
