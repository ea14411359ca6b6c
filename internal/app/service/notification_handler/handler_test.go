package notification_handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/membership"
	notificationlog "github.com/vipgate/vipgate/internal/app/service/notification_log"
	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/platform/telegram/telegramtest"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/metrics"
	"github.com/vipgate/vipgate/pkg/signature"
	"github.com/vipgate/vipgate/pkg/types"
)

const testSecret = "s3cret"

type testEnv struct {
	handler *NotificationHandler
	engine  *subscription.Service
	fake    *telegramtest.Fake
	store   store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zap.NewNop().Sugar()
	st := store.NewMemory()
	fake := telegramtest.New()
	engine := subscription.NewService(st, log)
	ms := membership.NewService(fake, engine, log)
	cfg := &config.Config{Qris: config.QrisConfig{WebhookSecret: testSecret}}

	h := NewNotificationHandler(cfg, engine, ms, notificationlog.New(st, log), metrics.New(), log)
	return &testEnv{handler: h, engine: engine, fake: fake, store: st}
}

func (e *testEnv) deliver(t *testing.T, body []byte, sig string) error {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/qris", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set("X-Signature", sig)
	}
	c.Request = req
	return e.handler.HandleNotification(c)
}

func paidBody(t *testing.T, orderID string) []byte {
	t.Helper()
	body, err := json.Marshal(Notification{Status: "paid", Description: orderID})
	require.NoError(t, err)
	return body
}

func TestHandleNotification_EndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.store.UpsertGroup(ctx, &models.Group{
		GroupID: 100, Name: "vip", Price1d: 10000, Price7d: 50000, Price30d: 120000,
	}))
	txn, err := env.engine.InitiatePurchase(ctx, 42, 100, types.Duration7d)
	require.NoError(t, err)
	require.Equal(t, int64(50000), txn.Price)

	body := paidBody(t, txn.OrderID)
	require.NoError(t, env.deliver(t, body, signature.Sign(body, testSecret)))

	entitled, err := env.engine.IsEntitled(ctx, 42, 100)
	require.NoError(t, err)
	require.True(t, entitled)

	sub, err := env.store.GetSubscription(ctx, 42, 100)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(7*24*time.Hour), sub.ExpireAt, 5*time.Second)

	invites := env.fake.Calls("CreateInviteLink")
	require.Len(t, invites, 1)
	require.Equal(t, int64(100), invites[0].ChatID)
	require.Equal(t, 1, invites[0].MemberLimit)
	require.True(t, invites[0].ExpireAt.Equal(sub.ExpireAt))

	sent := env.fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Equal(t, int64(42), sent[0].ChatID)
	require.Contains(t, sent[0].Text, env.fake.InviteLink)

	require.Equal(t, float64(1), testutil.ToFloat64(env.handler.metrics.PaymentsCommitted))
}

func TestHandleNotification_ReplayShortCircuits(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.store.UpsertGroup(ctx, &models.Group{GroupID: 100, Name: "vip", Price7d: 50000}))
	txn, err := env.engine.InitiatePurchase(ctx, 42, 100, types.Duration7d)
	require.NoError(t, err)

	body := paidBody(t, txn.OrderID)
	sig := signature.Sign(body, testSecret)
	require.NoError(t, env.deliver(t, body, sig))
	require.NoError(t, env.deliver(t, body, sig))

	// One grant, not two.
	require.Len(t, env.fake.Calls("CreateInviteLink"), 1)
	require.Equal(t, float64(1), testutil.ToFloat64(env.handler.metrics.PaymentsCommitted))
	require.Equal(t, float64(1), testutil.ToFloat64(env.handler.metrics.PaymentsDuplicate))
}

func TestHandleNotification_InvalidSignature(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.store.UpsertGroup(ctx, &models.Group{GroupID: 100, Name: "vip", Price7d: 50000}))
	txn, err := env.engine.InitiatePurchase(ctx, 42, 100, types.Duration7d)
	require.NoError(t, err)

	body := paidBody(t, txn.OrderID)
	err = env.deliver(t, body, signature.Sign(body, "wrong-secret"))
	require.ErrorIs(t, err, ErrUnauthorized)

	entitled, err := env.engine.IsEntitled(ctx, 42, 100)
	require.NoError(t, err)
	require.False(t, entitled)
	require.Empty(t, env.fake.Calls(""))
}

func TestHandleNotification_NonPaidStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.store.UpsertGroup(ctx, &models.Group{GroupID: 100, Name: "vip", Price7d: 50000}))
	txn, err := env.engine.InitiatePurchase(ctx, 42, 100, types.Duration7d)
	require.NoError(t, err)

	body, err := json.Marshal(Notification{Status: "expired", Description: txn.OrderID})
	require.NoError(t, err)
	require.NoError(t, env.deliver(t, body, signature.Sign(body, testSecret)))

	entitled, err := env.engine.IsEntitled(ctx, 42, 100)
	require.NoError(t, err)
	require.False(t, entitled)
	require.Empty(t, env.fake.Calls(""))
}

func TestHandleNotification_UnknownOrderAcknowledged(t *testing.T) {
	env := newTestEnv(t)

	body := paidBody(t, "no-such-order")
	require.NoError(t, env.deliver(t, body, signature.Sign(body, testSecret)))
	require.Empty(t, env.fake.Calls(""))
}

func TestHandleNotification_InviteFailureKeepsEntitlement(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.fake.Errs["CreateInviteLink"] = context.DeadlineExceeded

	require.NoError(t, env.store.UpsertGroup(ctx, &models.Group{GroupID: 100, Name: "vip", Price7d: 50000}))
	txn, err := env.engine.InitiatePurchase(ctx, 42, 100, types.Duration7d)
	require.NoError(t, err)

	// Money is captured; a failed invite never rolls the commit back.
	body := paidBody(t, txn.OrderID)
	require.NoError(t, env.deliver(t, body, signature.Sign(body, testSecret)))

	entitled, err := env.engine.IsEntitled(ctx, 42, 100)
	require.NoError(t, err)
	require.True(t, entitled)

	stored, err := env.store.GetTransaction(ctx, txn.OrderID)
	require.NoError(t, err)
	require.True(t, stored.Paid())
}

func TestHandleNotification_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	err := env.deliver(t, []byte("{not json"), "")
	require.ErrorIs(t, err, ErrBadPayload)
}
