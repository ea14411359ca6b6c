package notification_log

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/tool"
)

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
}

func New(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log}
}

// Save asynchronously persists a payment notification log. Nil input is
// ignored; failures are logged, never surfaced, so audit writes cannot block
// webhook handling.
func (s *Service) Save(ctx context.Context, entry *models.PaymentNotificationLog) {
	if entry == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = tool.GenerateOrderID()
	}
	go func() {
		if err := s.store.SaveNotificationLog(context.WithoutCancel(ctx), entry); err != nil {
			logctx.FromCtx(ctx, s.log).Errorf("failed to save notification log: %v", err)
		}
	}()
}

var Module = fx.Options(
	fx.Provide(New),
)
