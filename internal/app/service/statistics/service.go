// Package statistics serves read-only aggregates for the admin APIs.
package statistics

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vipgate/vipgate/internal/models"
)

// GroupStats summarizes one group's sales and live membership.
type GroupStats struct {
	GroupID             int64  `json:"group_id"`
	Name                string `json:"name"`
	ActiveSubscriptions int64  `json:"active_subscriptions"`
	PaidTransactions    int64  `json:"paid_transactions"`
	Revenue             int64  `json:"revenue"`
}

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service {
	return &Service{db: db, log: log}
}

// GroupOverview returns per-group aggregates evaluated at the given instant.
func (s *Service) GroupOverview(ctx context.Context, at time.Time) ([]*GroupStats, error) {
	var out []*GroupStats
	err := s.db.WithContext(ctx).Model(&models.Group{}).
		Select(`groups.group_id, groups.name,
			(SELECT count(*) FROM subscription s WHERE s.group_id = groups.group_id AND s.expire_at > ?) AS active_subscriptions,
			(SELECT count(*) FROM transaction t WHERE t.group_id = groups.group_id AND t.status = 'paid') AS paid_transactions,
			(SELECT coalesce(sum(t.price), 0) FROM transaction t WHERE t.group_id = groups.group_id AND t.status = 'paid') AS revenue`, at).
		Order("groups.name").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate group stats: %w", err)
	}
	return out, nil
}

var Module = fx.Options(
	fx.Provide(New),
)
