// Package notification_handler processes asynchronous payment-result
// notifications from the QRIS gateway: authenticate, commit, grant access,
// audit.
package notification_handler

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/vipgate/vipgate/internal/app/service/membership"
	notificationlog "github.com/vipgate/vipgate/internal/app/service/notification_log"
	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/metrics"
	"github.com/vipgate/vipgate/pkg/signature"
)

var (
	// ErrUnauthorized marks a notification whose signature does not verify.
	ErrUnauthorized = errors.New("notification: invalid signature")
	// ErrBadPayload marks a body that is not the expected JSON shape.
	ErrBadPayload = errors.New("notification: malformed payload")
)

// Notification is the gateway's webhook payload. Description carries the
// order_id reference of the transaction being settled.
type Notification struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Signature   string `json:"signature"`
}

type NotificationHandler struct {
	cfg        *config.Config
	engine     *subscription.Service
	membership *membership.Service
	notifSvc   *notificationlog.Service
	metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
}

func NewNotificationHandler(
	cfg *config.Config,
	engine *subscription.Service,
	ms *membership.Service,
	notif *notificationlog.Service,
	m *metrics.Metrics,
	log *zap.SugaredLogger,
) *NotificationHandler {
	return &NotificationHandler{cfg: cfg, engine: engine, membership: ms, notifSvc: notif, metrics: m, Logger: log}
}

// HandleNotification drives one webhook delivery to completion. The
// signature is verified over the raw request bytes, never a re-marshal.
// Unknown orders are acknowledged silently; replays short-circuit without a
// second grant; an invite failure after commit is logged but never rolls the
// ledger back.
func (h *NotificationHandler) HandleNotification(c *gin.Context) (resErr error) {
	ctx := c.Request.Context()
	lg := logctx.FromGin(c, h.Logger)

	raw, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	// The digest covers the exact bytes on the wire and normally travels in
	// the X-Signature header; the body field is a fallback for senders that
	// embed it.
	declared := c.GetHeader("X-Signature")
	if declared == "" {
		declared = n.Signature
	}
	if !signature.Verify(raw, declared, h.cfg.Qris.WebhookSecret) {
		lg.Warnw("webhook_signature_rejected", "order_id", n.Description)
		return ErrUnauthorized
	}

	var traceID string
	if v, ok := c.Get("traceID"); ok {
		traceID, _ = v.(string)
	}

	h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
		TraceID: traceID,
		OrderID: n.Description,
		Data:    datatypes.JSON(raw),
		Status:  models.PaymentNotificationLogStatusReceived,
	})

	if n.Status != "paid" {
		lg.Infow("webhook_ignored_status", "order_id", n.Description, "status", n.Status)
		return nil
	}

	var res subscription.CommitResult
	defer func() {
		resMap := map[string]any{"outcome": res.Outcome}
		if resErr != nil {
			resMap["error"] = resErr.Error()
		}
		resBytes, _ := json.Marshal(resMap)
		status := models.PaymentNotificationLogStatusHandled
		if resErr != nil {
			status = models.PaymentNotificationLogStatusHandleFailed
		}
		h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			TraceID: traceID,
			OrderID: n.Description,
			UserID: func() *int64 {
				if res.UserID == 0 {
					return nil
				}
				return lo.ToPtr(res.UserID)
			}(),
			Data:   datatypes.JSON(raw),
			Result: lo.ToPtr(datatypes.JSON(resBytes)),
			Status: status,
		})
	}()

	res, resErr = h.engine.CommitPayment(ctx, n.Description)
	if resErr != nil {
		lg.Errorw("payment_commit_failed", "order_id", n.Description, "err", resErr)
		return resErr
	}

	switch res.Outcome {
	case subscription.CommitOutcomeUnknownOrder:
		lg.Warnw("payment_unknown_order", "order_id", n.Description)
	case subscription.CommitOutcomeAlreadyCommitted:
		h.metrics.PaymentsDuplicate.Inc()
		lg.Infow("payment_duplicate", "order_id", n.Description)
	case subscription.CommitOutcomeCommitted:
		h.metrics.PaymentsCommitted.Inc()
		if _, err := h.membership.GrantAccess(ctx, res.UserID, res.GroupID, res.ExpireAt); err != nil {
			// Money is captured and entitlement persisted; the user can be
			// re-invited manually.
			lg.Errorw("invite_issue_failed",
				"order_id", n.Description, "user_id", res.UserID, "group_id", res.GroupID, "err", err)
		}
	}
	return nil
}

var Module = fx.Options(
	fx.Provide(NewNotificationHandler),
)
