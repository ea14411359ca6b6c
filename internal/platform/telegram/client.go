package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/pkg/config"
)

// Client is the production API implementation over the Bot API.
type Client struct {
	bot *tgbotapi.BotAPI
	log *zap.SugaredLogger
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger) (API, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	log.Infow("telegram bot authorized", "username", bot.Self.UserName)
	return &Client{bot: bot, log: log}, nil
}

func (c *Client) ApproveJoinRequest(_ context.Context, groupID, userID int64) error {
	_, err := c.bot.Request(tgbotapi.ApproveChatJoinRequestConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: groupID},
		UserID:     userID,
	})
	if err != nil {
		return fmt.Errorf("approveChatJoinRequest: %w", err)
	}
	return nil
}

func (c *Client) CreateInviteLink(_ context.Context, groupID int64, expireAt time.Time, memberLimit int) (string, error) {
	resp, err := c.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: groupID},
		ExpireDate:  int(expireAt.Unix()),
		MemberLimit: memberLimit,
	})
	if err != nil {
		return "", fmt.Errorf("createChatInviteLink: %w", err)
	}
	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("failed to decode invite link: %w", err)
	}
	return link.InviteLink, nil
}

func (c *Client) SendMessage(_ context.Context, chatID int64, text string) error {
	if _, err := c.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

func (c *Client) SendMessageWithKeyboard(_ context.Context, chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("sendMessage: %w", err)
	}
	return nil
}

func (c *Client) BanMember(_ context.Context, groupID, userID int64) error {
	_, err := c.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: groupID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("banChatMember: %w", err)
	}
	return nil
}

func (c *Client) UnbanMember(_ context.Context, groupID, userID int64) error {
	_, err := c.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: groupID, UserID: userID},
	})
	if err != nil {
		return fmt.Errorf("unbanChatMember: %w", err)
	}
	return nil
}

func (c *Client) AnswerCallback(_ context.Context, callbackID string) error {
	if _, err := c.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answerCallbackQuery: %w", err)
	}
	return nil
}
