// Package telegramtest provides an in-memory telegram.API fake that records
// every platform call for assertions.
package telegramtest

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Call struct {
	Method      string
	ChatID      int64
	UserID      int64
	Text        string
	ExpireAt    time.Time
	MemberLimit int
	CallbackID  string
}

type Fake struct {
	mu    sync.Mutex
	calls []Call

	// InviteLink is returned by CreateInviteLink.
	InviteLink string
	// Errs maps a method name to the error its calls should return.
	Errs map[string]error
}

func New() *Fake {
	return &Fake{InviteLink: "https://t.me/+testinvite", Errs: map[string]error{}}
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.Errs[c.Method]; err != nil {
		return err
	}
	f.calls = append(f.calls, c)
	return nil
}

// Calls returns the recorded calls for one method, or all calls when method
// is empty.
func (f *Fake) Calls(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if method == "" {
		return append([]Call(nil), f.calls...)
	}
	var out []Call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) ApproveJoinRequest(_ context.Context, groupID, userID int64) error {
	return f.record(Call{Method: "ApproveJoinRequest", ChatID: groupID, UserID: userID})
}

func (f *Fake) CreateInviteLink(_ context.Context, groupID int64, expireAt time.Time, memberLimit int) (string, error) {
	if err := f.record(Call{Method: "CreateInviteLink", ChatID: groupID, ExpireAt: expireAt, MemberLimit: memberLimit}); err != nil {
		return "", err
	}
	return f.InviteLink, nil
}

func (f *Fake) SendMessage(_ context.Context, chatID int64, text string) error {
	return f.record(Call{Method: "SendMessage", ChatID: chatID, Text: text})
}

func (f *Fake) SendMessageWithKeyboard(_ context.Context, chatID int64, text string, _ tgbotapi.InlineKeyboardMarkup) error {
	return f.record(Call{Method: "SendMessageWithKeyboard", ChatID: chatID, Text: text})
}

func (f *Fake) BanMember(_ context.Context, groupID, userID int64) error {
	return f.record(Call{Method: "BanMember", ChatID: groupID, UserID: userID})
}

func (f *Fake) UnbanMember(_ context.Context, groupID, userID int64) error {
	return f.record(Call{Method: "UnbanMember", ChatID: groupID, UserID: userID})
}

func (f *Fake) AnswerCallback(_ context.Context, callbackID string) error {
	return f.record(Call{Method: "AnswerCallback", CallbackID: callbackID})
}
