package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
)

const exposeDetailKey = "exposeErrorDetail"

const internalMessage = "internal server error"

type errorBody struct {
	Error errorPayload `json:"error"`
}

type errorPayload struct {
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Details []string `json:"details,omitempty"`
	Detail  string   `json:"detail,omitempty"`
}

// ErrorDetail controls whether error responses carry the wrapped cause.
// Enable it outside production only.
func ErrorDetail(expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(exposeDetailKey, expose)
		c.Next()
	}
}

// RespondError writes err as {"error":{"message","status"}}. Internal and
// unclassified errors never reveal their message.
func RespondError(c *gin.Context, err error) {
	c.JSON(statusAndBody(c, err))
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusAndBody(c, err))
}

func statusAndBody(c *gin.Context, err error) (int, errorBody) {
	kind := apperr.KindOf(err)
	status := kind.Status()

	payload := errorPayload{Status: status, Message: internalMessage}
	var appErr *apperr.Error
	if errors.As(err, &appErr) && kind != apperr.Internal {
		payload.Message = appErr.Message
		payload.Details = appErr.Details
	}

	if kind == apperr.Internal {
		Logger(c).Error("request failed", zap.Error(err))
	}
	if c.GetBool(exposeDetailKey) {
		payload.Detail = err.Error()
	}
	return status, errorBody{Error: payload}
}

func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		RespondError(c, apperr.New(apperr.NotFound, "route not found"))
	}
}

func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, errorBody{Error: errorPayload{
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		}})
	}
}
