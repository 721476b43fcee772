package handlers

import (
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/habitflow-backend/internal/apierr"
)

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RespondError maps any error onto the wire taxonomy. Internal error
// detail reaches the body only outside production.
func RespondError(c *gin.Context, err error) {
	ae := apierr.From(err)
	message := "internal server error"
	if ae.Status < 500 || devModeEnabled() {
		message = ae.Error()
	}
	c.JSON(ae.Status, ErrorEnvelope{Error: ErrorBody{
		Code:    ae.Code,
		Message: message,
	}})
}

func devModeEnabled() bool {
	switch strings.TrimSpace(strings.ToLower(os.Getenv("APP_ENV"))) {
	case "", "dev", "development", "local":
		return true
	default:
		return false
	}
}

func RespondOK(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, payload)
}
