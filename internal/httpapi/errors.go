package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/salon-booking/internal/scheduling"
	"github.com/Leganyst/salon-booking/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Reason  string `json:"reason,omitempty"`
	Details string `json:"details,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// клиент закрыл соединение, код уже никто не прочитает
		return 499
	}

	switch scheduling.KindOf(err) {
	case scheduling.KindNotFound:
		return http.StatusNotFound
	case scheduling.KindPolicyViolation:
		return http.StatusUnprocessableEntity
	case scheduling.KindConflict, scheduling.KindState:
		return http.StatusConflict
	case scheduling.KindQualification:
		return http.StatusBadRequest
	case scheduling.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(c *gin.Context, err error) {
	code := statusFor(err)
	resp := errorResponse{
		Error:  http.StatusText(code),
		Reason: string(scheduling.ReasonOf(err)),
	}
	if code < http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		resp.Details = err.Error()
	}
	if code >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	if resp.Error == "" {
		resp.Error = "request cancelled"
	}
	c.AbortWithStatusJSON(code, resp)
}
