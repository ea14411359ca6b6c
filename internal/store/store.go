// Package store is the single owner of the ledger tables. Every other
// component reads and writes groups, transactions and subscriptions through
// this interface; nothing caches entitlement state across invocations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/pkg/types"
)

var ErrNotFound = errors.New("store: not found")

type ScanTransactionsRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanTransactionsResponse struct {
	Items []*models.Transaction `json:"items"`
	Total int64                 `json:"total"`
}

type Store interface {
	// Groups
	UpsertGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, groupID int64) (*models.Group, error)
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// Transactions
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	GetTransaction(ctx context.Context, orderID string) (*models.Transaction, error)
	// MarkTransactionPaid flips pending to paid atomically. It reports false
	// when the row was not pending, which callers treat as a concurrent
	// duplicate notification.
	MarkTransactionPaid(ctx context.Context, orderID string) (bool, error)
	ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error)

	// Subscriptions
	UpsertSubscription(ctx context.Context, s *models.Subscription) error
	GetSubscription(ctx context.Context, userID, groupID int64) (*models.Subscription, error)
	DeleteSubscription(ctx context.Context, userID, groupID int64) error
	ListExpiredSubscriptions(ctx context.Context, before time.Time) ([]*models.Subscription, error)

	// Audit
	SaveNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error
}
