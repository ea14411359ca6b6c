package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/pkg/types"
)

type gormStore struct {
	db *gorm.DB
}

// NewGorm returns the postgres-backed ledger store.
func NewGorm(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) UpsertGroup(ctx context.Context, g *models.Group) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "price_1d", "price_7d", "price_30d", "updated_at"}),
	}).Create(g).Error
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}
	return nil
}

func (s *gormStore) GetGroup(ctx context.Context, groupID int64) (*models.Group, error) {
	var g models.Group
	if err := s.db.WithContext(ctx).Where("group_id = ?", groupID).First(&g).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return &g, nil
}

func (s *gormStore) ListGroups(ctx context.Context) ([]*models.Group, error) {
	var groups []*models.Group
	if err := s.db.WithContext(ctx).Order("name").Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

func (s *gormStore) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *gormStore) GetTransaction(ctx context.Context, orderID string) (*models.Transaction, error) {
	var t models.Transaction
	if err := s.db.WithContext(ctx).Where("order_id = ?", orderID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &t, nil
}

// MarkTransactionPaid relies on the conditional UPDATE as the compare-and-swap:
// two concurrent notifications for one order both reach this statement, but
// only one affects a row.
func (s *gormStore) MarkTransactionPaid(ctx context.Context, orderID string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("order_id = ? AND status = ?", orderID, types.TransactionStatusPending).
		Update("status", types.TransactionStatusPaid)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark transaction paid: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// filtersAnd combines multiple CommonFilter into a single clause.Expression.
type filtersAnd struct{ filters []*types.CommonFilter }

func (w filtersAnd) Build(builder clause.Builder) {
	if len(w.filters) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(w.filters))
	for _, f := range w.filters {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

func (s *gormStore) ScanTransactions(ctx context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	if req.From < 0 {
		req.From = 0
	}

	tx := s.db.WithContext(ctx).Model(&models.Transaction{})
	if len(req.Filters) > 0 {
		tx = tx.Where(clause.Where{Exprs: []clause.Expression{filtersAnd{filters: req.Filters}}})
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	q := tx.Limit(req.Size)
	if req.From > 0 {
		q = q.Offset(req.From)
	}
	if req.SortBy != "" {
		q = q.Order(clause.OrderBy{Columns: []clause.OrderByColumn{{Column: clause.Column{Name: req.SortBy}, Desc: req.SortOrder != "asc"}}})
	}

	var rows []*models.Transaction
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return &ScanTransactionsResponse{Items: rows, Total: total}, nil
}

func (s *gormStore) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "group_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"expire_at", "updated_at"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *gormStore) GetSubscription(ctx context.Context, userID, groupID int64) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, userID, groupID int64) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND group_id = ?", userID, groupID).
		Delete(&models.Subscription{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (s *gormStore) ListExpiredSubscriptions(ctx context.Context, before time.Time) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	if err := s.db.WithContext(ctx).Where("expire_at < ?", before).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}
	return subs, nil
}

func (s *gormStore) SaveNotificationLog(ctx context.Context, l *models.PaymentNotificationLog) error {
	if err := s.db.WithContext(ctx).Save(l).Error; err != nil {
		return fmt.Errorf("failed to save notification log: %w", err)
	}
	return nil
}
