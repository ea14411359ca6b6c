package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/subscription"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/platform/telegram/telegramtest"
	"github.com/vipgate/vipgate/internal/store"
)

func newTestService(t *testing.T) (*Service, *telegramtest.Fake, store.Store) {
	t.Helper()
	st := store.NewMemory()
	fake := telegramtest.New()
	sub := subscription.NewService(st, zap.NewNop().Sugar())
	return NewService(fake, sub, zap.NewNop().Sugar()), fake, st
}

func TestHandleJoinRequest_ApprovesEntitledUser(t *testing.T) {
	ctx := context.Background()
	svc, fake, st := newTestService(t)

	require.NoError(t, st.UpsertSubscription(ctx, &models.Subscription{
		UserID: 7, GroupID: 42, ExpireAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, svc.HandleJoinRequest(ctx, 7, 42))

	calls := fake.Calls("ApproveJoinRequest")
	require.Len(t, calls, 1)
	require.Equal(t, int64(42), calls[0].ChatID)
	require.Equal(t, int64(7), calls[0].UserID)
}

func TestHandleJoinRequest_IgnoresNonEntitledUser(t *testing.T) {
	ctx := context.Background()
	svc, fake, st := newTestService(t)

	// Expired row: still present, no longer an entitlement.
	require.NoError(t, st.UpsertSubscription(ctx, &models.Subscription{
		UserID: 7, GroupID: 42, ExpireAt: time.Now().Add(-time.Hour),
	}))

	require.NoError(t, svc.HandleJoinRequest(ctx, 7, 42))
	require.NoError(t, svc.HandleJoinRequest(ctx, 8, 42))

	require.Empty(t, fake.Calls(""))
}

func TestGrantAccess_SingleUseInvite(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newTestService(t)

	expireAt := time.Now().Add(24 * time.Hour)
	link, err := svc.GrantAccess(ctx, 7, 42, expireAt)
	require.NoError(t, err)
	require.Equal(t, fake.InviteLink, link)

	created := fake.Calls("CreateInviteLink")
	require.Len(t, created, 1)
	require.Equal(t, int64(42), created[0].ChatID)
	require.Equal(t, 1, created[0].MemberLimit)
	require.True(t, created[0].ExpireAt.Equal(expireAt))

	sent := fake.Calls("SendMessage")
	require.Len(t, sent, 1)
	require.Equal(t, int64(7), sent[0].ChatID)
	require.Contains(t, sent[0].Text, link)
}

func TestGrantAccess_InviteFailure(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newTestService(t)
	fake.Errs["CreateInviteLink"] = errors.New("telegram down")

	_, err := svc.GrantAccess(ctx, 7, 42, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrPlatformUnavailable)
	require.Empty(t, fake.Calls("SendMessage"))
}

func TestGrantAccess_DeliveryFailureStillReturnsLink(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newTestService(t)
	fake.Errs["SendMessage"] = errors.New("user blocked bot")

	link, err := svc.GrantAccess(ctx, 7, 42, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, fake.InviteLink, link)
}

func TestRevokeAccess_BanThenUnban(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newTestService(t)

	require.NoError(t, svc.RevokeAccess(ctx, 7, 42))

	calls := fake.Calls("")
	require.Len(t, calls, 2)
	require.Equal(t, "BanMember", calls[0].Method)
	require.Equal(t, "UnbanMember", calls[1].Method)
	require.Equal(t, int64(7), calls[0].UserID)
	require.Equal(t, int64(42), calls[0].ChatID)
}

func TestRevokeAccess_BanFailureSkipsUnban(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newTestService(t)
	fake.Errs["BanMember"] = errors.New("telegram down")

	err := svc.RevokeAccess(ctx, 7, 42)
	require.ErrorIs(t, err, ErrPlatformUnavailable)
	require.Empty(t, fake.Calls("UnbanMember"))
}
