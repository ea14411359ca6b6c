// Package subscription is the lifecycle engine: it turns purchase intents
// into pending transactions, commits verified payments into time-boxed
// entitlements, and answers entitlement queries. The ledger store is the only
// state it touches.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/logctx"
	"github.com/vipgate/vipgate/pkg/tool"
	"github.com/vipgate/vipgate/pkg/types"
)

var (
	ErrUnknownGroup   = errors.New("subscription: unknown group")
	ErrUnknownPackage = errors.New("subscription: unknown package")
)

type CommitOutcome string

const (
	CommitOutcomeCommitted        CommitOutcome = "committed"
	CommitOutcomeAlreadyCommitted CommitOutcome = "already_committed"
	CommitOutcomeUnknownOrder     CommitOutcome = "unknown_order"
)

// CommitResult reports what a payment notification did to the ledger.
// UserID/GroupID are set for the committed and already-committed outcomes;
// ExpireAt only for a fresh commit.
type CommitResult struct {
	Outcome  CommitOutcome
	UserID   int64
	GroupID  int64
	ExpireAt time.Time
}

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// InitiatePurchase validates the package against the group's price table and
// records a pending transaction with a fresh order id.
func (s *Service) InitiatePurchase(ctx context.Context, userID, groupID int64, d types.Duration) (*models.Transaction, error) {
	if !d.Valid() {
		return nil, ErrUnknownPackage
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownGroup
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	txn := &models.Transaction{
		OrderID:  tool.GenerateOrderID(),
		UserID:   userID,
		GroupID:  groupID,
		Duration: d,
		Price:    g.PriceFor(d),
		Status:   types.TransactionStatusPending,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	logctx.FromCtx(ctx, s.log).Infow("purchase_initiated",
		"order_id", txn.OrderID, "user_id", userID, "group_id", groupID,
		"duration", d, "price", txn.Price)
	return txn, nil
}

// CommitPayment turns a pending transaction into an active subscription,
// exactly once. The subscription upsert lands before the status flip: a crash
// in between leaves a pending transaction that a replayed notification can
// re-drive, and the upsert itself is idempotent. The status flip is a
// compare-and-swap, so of two concurrent notifications for one order only one
// observes a fresh commit.
func (s *Service) CommitPayment(ctx context.Context, orderID string) (CommitResult, error) {
	txn, err := s.store.GetTransaction(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		// Indistinguishable from a forged or stale probe; the caller
		// acknowledges without acting.
		return CommitResult{Outcome: CommitOutcomeUnknownOrder}, nil
	}
	if err != nil {
		return CommitResult{}, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.Paid() {
		return CommitResult{Outcome: CommitOutcomeAlreadyCommitted, UserID: txn.UserID, GroupID: txn.GroupID}, nil
	}

	expireAt := s.now().Add(txn.Duration.AsDuration())
	sub := &models.Subscription{UserID: txn.UserID, GroupID: txn.GroupID, ExpireAt: expireAt}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return CommitResult{}, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	flipped, err := s.store.MarkTransactionPaid(ctx, orderID)
	if err != nil {
		return CommitResult{}, fmt.Errorf("failed to mark transaction paid: %w", err)
	}
	if !flipped {
		// Lost the race to a concurrent notification for the same order.
		return CommitResult{Outcome: CommitOutcomeAlreadyCommitted, UserID: txn.UserID, GroupID: txn.GroupID}, nil
	}

	logctx.FromCtx(ctx, s.log).Infow("payment_committed",
		"order_id", orderID, "user_id", txn.UserID, "group_id", txn.GroupID,
		"expire_at", expireAt)
	return CommitResult{
		Outcome:  CommitOutcomeCommitted,
		UserID:   txn.UserID,
		GroupID:  txn.GroupID,
		ExpireAt: expireAt,
	}, nil
}

// IsEntitled reports whether the pair holds an unexpired subscription.
// Pure read.
func (s *Service) IsEntitled(ctx context.Context, userID, groupID int64) (bool, error) {
	sub, err := s.store.GetSubscription(ctx, userID, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load subscription: %w", err)
	}
	return sub.ValidAt(s.now()), nil
}
