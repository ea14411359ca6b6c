// Package telegram wraps the Bot API operations the service consumes. Every
// call is a single attempt with no internal retry; callers own any retry
// policy.
package telegram

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"
)

type API interface {
	// ApproveJoinRequest accepts a pending chat join request.
	ApproveJoinRequest(ctx context.Context, groupID, userID int64) error
	// CreateInviteLink mints a fresh invite link limited to memberLimit
	// redemptions and expiring at expireAt.
	CreateInviteLink(ctx context.Context, groupID int64, expireAt time.Time, memberLimit int) (string, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	// BanMember revokes current membership; pair with UnbanMember so the user
	// may request to rejoin later.
	BanMember(ctx context.Context, groupID, userID int64) error
	UnbanMember(ctx context.Context, groupID, userID int64) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
