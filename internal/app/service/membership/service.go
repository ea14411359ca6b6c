// Package membership translates subscription state into platform actions:
// approving join requests, issuing single-use invite links, and removing
// expired members.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/platform/telegram"
	"github.com/vipgate/vipgate/pkg/logctx"
)

// ErrPlatformUnavailable wraps any failed platform call. It never causes a
// ledger rollback; the ledger stays authoritative.
var ErrPlatformUnavailable = errors.New("membership: platform unavailable")

type Service struct {
	tg  telegram.API
	sub *subscription.Service
	log *zap.SugaredLogger
}

func NewService(tg telegram.API, sub *subscription.Service, log *zap.SugaredLogger) *Service {
	return &Service{tg: tg, sub: sub, log: log}
}

// HandleJoinRequest approves the pending join request iff the user is
// currently entitled. A non-entitled user gets no reply; absence of approval
// is the only signal.
func (s *Service) HandleJoinRequest(ctx context.Context, userID, groupID int64) error {
	entitled, err := s.sub.IsEntitled(ctx, userID, groupID)
	if err != nil {
		return fmt.Errorf("failed to check entitlement: %w", err)
	}
	if !entitled {
		logctx.FromCtx(ctx, s.log).Debugw("join_request_ignored", "user_id", userID, "group_id", groupID)
		return nil
	}
	if err := s.tg.ApproveJoinRequest(ctx, groupID, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("join_request_approved", "user_id", userID, "group_id", groupID)
	return nil
}

// GrantAccess mints a single-use invite link expiring with the subscription
// and delivers it to the user. Safe to re-run: each call issues a new link.
// A delivery failure is logged only; the link was created and entitlement is
// already persisted.
func (s *Service) GrantAccess(ctx context.Context, userID, groupID int64, expireAt time.Time) (string, error) {
	link, err := s.tg.CreateInviteLink(ctx, groupID, expireAt, 1)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	text := "Payment received.\nYour invite link:\n" + link
	if err := s.tg.SendMessage(ctx, userID, text); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("invite_delivery_failed",
			"user_id", userID, "group_id", groupID, "err", err)
	}
	return link, nil
}

// RevokeAccess removes the user via ban-then-unban: the ban revokes current
// membership, the unban lifts the restriction so they may rejoin after a
// future purchase. A no-op for users already absent from the group.
func (s *Service) RevokeAccess(ctx context.Context, userID, groupID int64) error {
	if err := s.tg.BanMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	if err := s.tg.UnbanMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	logctx.FromCtx(ctx, s.log).Infow("access_revoked", "user_id", userID, "group_id", groupID)
	return nil
}
