package handlers

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/bot"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/response"
)

// ApiTelegramWebhook receives Bot API updates. Telegram retries non-200
// responses, so dispatch errors are logged rather than surfaced.
func ApiTelegramWebhook(d *bot.Dispatcher, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var upd tgbotapi.Update
		if err := c.ShouldBindJSON(&upd); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		if err := d.Dispatch(c.Request.Context(), &upd); err != nil {
			logctx.FromGin(c, log).Errorw("telegram_update_failed", "err", err)
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterTelegramRoutes(r gin.IRouter, d *bot.Dispatcher, log *zap.SugaredLogger) {
	r.POST("/webhook", ApiTelegramWebhook(d, log))
}
