package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/membership"
	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/platform/qris"
	"github.com/vipgate/vipgate/internal/platform/telegram/telegramtest"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/types"
)

const testAdminID int64 = 999

type paymentCall struct {
	amount  int64
	orderID string
}

type fakeGateway struct {
	payment *qris.Payment
	err     error
	calls   []paymentCall
}

func (f *fakeGateway) CreatePayment(_ context.Context, amount int64, orderID string) (*qris.Payment, error) {
	f.calls = append(f.calls, paymentCall{amount: amount, orderID: orderID})
	if f.err != nil {
		return nil, f.err
	}
	return f.payment, nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *telegramtest.Fake, *fakeGateway, store.Store) {
	t.Helper()
	log := zap.NewNop().Sugar()
	st := store.NewMemory()
	fake := telegramtest.New()
	gw := &fakeGateway{payment: &qris.Payment{QrisURL: "https://qris.pw/pay/abc"}}
	engine := subscription.NewService(st, log)
	ms := membership.NewService(fake, engine, log)
	cfg := &config.Config{Telegram: config.TelegramConfig{AdminID: testAdminID}}
	return NewDispatcher(cfg, fake, engine, ms, gw, st, log), fake, gw, st
}

func seedGroup(t *testing.T, st store.Store) {
	t.Helper()
	require.NoError(t, st.UpsertGroup(context.Background(), &models.Group{
		GroupID: 42, Name: "vip", Price1d: 100, Price7d: 500, Price30d: 1500,
	}))
}

func messageUpdate(fromID, chatID int64, text string) *tgbotapi.Update {
	return &tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: fromID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func callbackUpdate(fromID, chatID int64, data string) *tgbotapi.Update {
	return &tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: fromID},
		Data:    data,
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestDispatch_JoinRequest(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)

	require.NoError(t, st.UpsertSubscription(ctx, &models.Subscription{
		UserID: 7, GroupID: 42, ExpireAt: time.Now().Add(time.Hour),
	}))

	upd := &tgbotapi.Update{ChatJoinRequest: &tgbotapi.ChatJoinRequest{
		Chat: tgbotapi.Chat{ID: 42},
		From: tgbotapi.User{ID: 7},
	}}
	require.NoError(t, d.Dispatch(ctx, upd))
	require.Len(t, fake.Calls("ApproveJoinRequest"), 1)

	// No subscription, no approval, no error.
	upd.ChatJoinRequest.From.ID = 8
	require.NoError(t, d.Dispatch(ctx, upd))
	require.Len(t, fake.Calls("ApproveJoinRequest"), 1)
}

func TestDispatch_StartShowsGroupMenu(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)
	seedGroup(t, st)

	require.NoError(t, d.Dispatch(ctx, messageUpdate(7, 7, "/start")))

	sent := fake.Calls("SendMessageWithKeyboard")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Text, "Choose a VIP group")
}

func TestDispatch_StartWithoutGroups(t *testing.T) {
	ctx := context.Background()
	d, fake, _, _ := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, messageUpdate(7, 7, "/start")))
	require.Len(t, fake.Calls("SendMessage"), 1)
	require.Empty(t, fake.Calls("SendMessageWithKeyboard"))
}

func TestDispatch_AddGroup(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, messageUpdate(testAdminID, testAdminID, "/addgroup 42 vip 100 500 1500")))

	g, err := st.GetGroup(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "vip", g.Name)
	require.Equal(t, int64(500), g.Price7d)
	require.Len(t, fake.Calls("SendMessage"), 1)
}

func TestDispatch_AddGroupRejectsNonAdmin(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, messageUpdate(7, 7, "/addgroup 42 vip 100 500 1500")))

	_, err := st.GetGroup(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Empty(t, fake.Calls(""))
}

func TestDispatch_AddGroupBadArgs(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, messageUpdate(testAdminID, testAdminID, "/addgroup 42 vip")))

	_, err := st.GetGroup(ctx, 42)
	require.ErrorIs(t, err, store.ErrNotFound)
	sent := fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Equal(t, addGroupUsage, sent[0].Text)
}

func TestDispatch_SelectGroupShowsPackages(t *testing.T) {
	ctx := context.Background()
	d, fake, _, st := newTestDispatcher(t)
	seedGroup(t, st)

	require.NoError(t, d.Dispatch(ctx, callbackUpdate(7, 7, EncodeSelectGroup(42))))

	sent := fake.Calls("SendMessageWithKeyboard")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Text, "vip")
	require.Len(t, fake.Calls("AnswerCallback"), 1)
}

func TestDispatch_BuyCreatesPayment(t *testing.T) {
	ctx := context.Background()
	d, fake, gw, st := newTestDispatcher(t)
	seedGroup(t, st)

	require.NoError(t, d.Dispatch(ctx, callbackUpdate(7, 7, EncodeBuy(42, types.Duration7d))))

	require.Len(t, gw.calls, 1)
	require.Equal(t, int64(500), gw.calls[0].amount)

	txn, err := st.GetTransaction(ctx, gw.calls[0].orderID)
	require.NoError(t, err)
	require.Equal(t, types.TransactionStatusPending, txn.Status)
	require.Equal(t, int64(7), txn.UserID)

	sent := fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Text, gw.payment.QrisURL)
	require.Len(t, fake.Calls("AnswerCallback"), 1)
}

func TestDispatch_BuyGatewayFailure(t *testing.T) {
	ctx := context.Background()
	d, fake, gw, st := newTestDispatcher(t)
	seedGroup(t, st)
	gw.err = errors.New("gateway down")

	err := d.Dispatch(ctx, callbackUpdate(7, 7, EncodeBuy(42, types.Duration7d)))
	require.Error(t, err)

	// The user is told, and the callback is still answered.
	sent := fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Text, "try again later")
	require.Len(t, fake.Calls("AnswerCallback"), 1)
}

func TestDispatch_BuyUnknownGroup(t *testing.T) {
	ctx := context.Background()
	d, fake, gw, _ := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, callbackUpdate(7, 7, EncodeBuy(99, types.Duration7d))))
	require.Empty(t, gw.calls)
	sent := fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Contains(t, sent[0].Text, "not available")
}

func TestDispatch_UnknownCallbackStillAnswered(t *testing.T) {
	ctx := context.Background()
	d, fake, _, _ := newTestDispatcher(t)

	require.NoError(t, d.Dispatch(ctx, callbackUpdate(7, 7, "bogus_payload")))
	require.Len(t, fake.Calls("AnswerCallback"), 1)
	require.Empty(t, fake.Calls("SendMessage"))
}

func TestDispatch_IgnoresUnsupportedUpdate(t *testing.T) {
	d, fake, _, _ := newTestDispatcher(t)
	require.NoError(t, d.Dispatch(context.Background(), &tgbotapi.Update{}))
	require.Empty(t, fake.Calls(""))
}
