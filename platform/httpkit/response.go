package httpkit

import (
	"errors"
	"net/http"

	"pcbuild_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the standard JSON error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// RespondError maps a domain error to an HTTP response. apperr kinds map to
// their status codes; anything else becomes a generic 500.
func RespondError(c *gin.Context, err error) {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), ErrorBody{Error: domainErr.Message, Details: domainErr.Details})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: "internal server error"})
}

// RespondValidation reports a request binding/validation failure.
func RespondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: "invalid request", Details: err.Error()})
}
