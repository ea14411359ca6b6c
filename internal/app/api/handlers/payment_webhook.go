package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	nh "github.com/vipgate/vipgate/internal/app/service/notification_handler"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/response"
)

// ApiQrisWebhook handles asynchronous payment-result notifications from the
// QRIS gateway. An unverified payload is rejected with 401; everything else
// is acknowledged so the gateway stops retrying.
func ApiQrisWebhook(h *nh.NotificationHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.HandleNotification(c)
		switch {
		case err == nil:
			c.JSON(http.StatusOK, response.OKT[any](nil))
		case errors.Is(err, nh.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
		case errors.Is(err, nh.ErrBadPayload):
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		default:
			logctx.FromGin(c, h.Logger).Errorw("webhook_qris_handle_error", "error", err.Error())
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
		}
	}
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, h *nh.NotificationHandler) {
	r.POST("/qris", ApiQrisWebhook(h))
}
