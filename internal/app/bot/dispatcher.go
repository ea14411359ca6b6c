// Package bot routes inbound Telegram updates: join requests gate on the
// subscription engine, /start opens the purchase menu, callbacks carry typed
// purchase intents, and /addgroup registers groups.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/membership"
	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/platform/qris"
	"github.com/vipgate/vipgate/internal/platform/telegram"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/types"
)

const addGroupUsage = "usage: /addgroup <group_id> <name> <price_1d> <price_7d> <price_30d>"

type Dispatcher struct {
	cfg        *config.Config
	tg         telegram.API
	engine     *subscription.Service
	membership *membership.Service
	gateway    qris.Gateway
	store      store.Store
	log        *zap.SugaredLogger
}

func NewDispatcher(
	cfg *config.Config,
	tg telegram.API,
	engine *subscription.Service,
	ms *membership.Service,
	gw qris.Gateway,
	st store.Store,
	log *zap.SugaredLogger,
) *Dispatcher {
	return &Dispatcher{cfg: cfg, tg: tg, engine: engine, membership: ms, gateway: gw, store: st, log: log}
}

// Dispatch routes one update by its variant. Exactly one variant is handled
// per update; anything unsupported is acknowledged silently.
func (d *Dispatcher) Dispatch(ctx context.Context, upd *tgbotapi.Update) error {
	switch {
	case upd.ChatJoinRequest != nil:
		return d.membership.HandleJoinRequest(ctx, upd.ChatJoinRequest.From.ID, upd.ChatJoinRequest.Chat.ID)
	case upd.Message != nil:
		return d.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		return d.handleCallback(ctx, upd.CallbackQuery)
	}
	return nil
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	switch {
	case msg.Text == "/start":
		return d.sendGroupMenu(ctx, msg.Chat.ID)
	case strings.HasPrefix(msg.Text, "/addgroup"):
		return d.handleAddGroup(ctx, msg)
	}
	return nil
}

// handleAddGroup registers or updates a group. Admin only; anyone else is
// ignored without a reply.
func (d *Dispatcher) handleAddGroup(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.From.ID != d.cfg.Telegram.AdminID {
		return nil
	}

	fields := strings.Fields(msg.Text)
	if len(fields) != 6 {
		return d.tg.SendMessage(ctx, msg.Chat.ID, addGroupUsage)
	}

	groupID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return d.tg.SendMessage(ctx, msg.Chat.ID, addGroupUsage)
	}
	prices := make([]int64, 0, 3)
	for _, raw := range fields[3:] {
		p, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || p < 0 {
			return d.tg.SendMessage(ctx, msg.Chat.ID, addGroupUsage)
		}
		prices = append(prices, p)
	}

	g := &models.Group{
		GroupID:  groupID,
		Name:     fields[2],
		Price1d:  prices[0],
		Price7d:  prices[1],
		Price30d: prices[2],
	}
	if err := d.store.UpsertGroup(ctx, g); err != nil {
		return fmt.Errorf("failed to register group: %w", err)
	}
	logctx.FromCtx(ctx, d.log).Infow("group_registered", "group_id", g.GroupID, "name", g.Name)
	return d.tg.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Group %q registered", g.Name))
}

func (d *Dispatcher) sendGroupMenu(ctx context.Context, chatID int64) error {
	groups, err := d.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("failed to list groups: %w", err)
	}
	if len(groups) == 0 {
		return d.tg.SendMessage(ctx, chatID, "No groups available yet.")
	}

	rows := lo.Map(groups, func(g *models.Group, _ int) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(g.Name, EncodeSelectGroup(g.GroupID)),
		)
	})
	return d.tg.SendMessageWithKeyboard(ctx, chatID, "Choose a VIP group:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleCallback decodes the intent, handles it, and answers the callback
// exactly once regardless of the outcome.
func (d *Dispatcher) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	var handleErr error

	intent, err := DecodeIntent(q.Data)
	switch {
	case err != nil:
		logctx.FromCtx(ctx, d.log).Warnw("callback_intent_unknown", "data", q.Data)
	case q.Message == nil:
		logctx.FromCtx(ctx, d.log).Warnw("callback_without_message", "data", q.Data)
	case intent.Kind == IntentKindSelectGroup:
		handleErr = d.sendPackageMenu(ctx, q.Message.Chat.ID, intent.GroupID)
	case intent.Kind == IntentKindBuy:
		handleErr = d.handleBuy(ctx, q.Message.Chat.ID, q.From.ID, intent)
	}

	if err := d.tg.AnswerCallback(ctx, q.ID); err != nil {
		logctx.FromCtx(ctx, d.log).Warnw("callback_answer_failed", "err", err)
	}
	return handleErr
}

func (d *Dispatcher) sendPackageMenu(ctx context.Context, chatID, groupID int64) error {
	g, err := d.store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return d.tg.SendMessage(ctx, chatID, "That group is no longer available.")
	}
	if err != nil {
		return fmt.Errorf("failed to load group: %w", err)
	}

	rows := lo.Map(types.AllDurations, func(dur types.Duration, _ int) []tgbotapi.InlineKeyboardButton {
		label := fmt.Sprintf("%s - %d", dur.Label(), g.PriceFor(dur))
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, EncodeBuy(groupID, dur)),
		)
	})
	text := fmt.Sprintf("Choose a package for %s:", g.Name)
	return d.tg.SendMessageWithKeyboard(ctx, chatID, text, tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// handleBuy creates the pending transaction and the gateway charge. A gateway
// failure aborts the flow and tells the user, so no unpayable pending
// transaction is silently left behind.
func (d *Dispatcher) handleBuy(ctx context.Context, chatID, userID int64, intent Intent) error {
	txn, err := d.engine.InitiatePurchase(ctx, userID, intent.GroupID, intent.Duration)
	if errors.Is(err, subscription.ErrUnknownGroup) || errors.Is(err, subscription.ErrUnknownPackage) {
		return d.tg.SendMessage(ctx, chatID, "That package is not available.")
	}
	if err != nil {
		return fmt.Errorf("failed to initiate purchase: %w", err)
	}

	pay, err := d.gateway.CreatePayment(ctx, txn.Price, txn.OrderID)
	if err != nil {
		logctx.FromCtx(ctx, d.log).Errorw("payment_request_failed", "order_id", txn.OrderID, "err", err)
		if serr := d.tg.SendMessage(ctx, chatID, "Payment could not be created, please try again later."); serr != nil {
			logctx.FromCtx(ctx, d.log).Errorw("payment_failure_notice_failed", "err", serr)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return d.tg.SendMessage(ctx, chatID, "Please pay:\n"+pay.QrisURL)
}
