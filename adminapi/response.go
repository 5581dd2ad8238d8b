package adminapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/pipelinedef/errors"
)

// dataResponse is the standard success envelope, matching the response
// shape the rest of the toolkit's HTTP surfaces use.
type dataResponse struct {
	Data any `json:"data"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dataResponse{Data: data})
}

// respondError inspects err: an *apperrors.AppError drives the status and
// body directly; anything else becomes a generic 500. A *definition.Error
// is not unwrapped here, so callers pass its AppError() adaptation.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}
