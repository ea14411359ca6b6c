// Package sweeper periodically revokes subscriptions past their expiry time.
package sweeper

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/vipgate/vipgate/internal/app/service/membership"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/config"
	"github.com/vipgate/vipgate/pkg/metrics"
)

type Sweeper struct {
	store      store.Store
	membership *membership.Service
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
	interval   time.Duration
	now        func() time.Time

	// sweeping is the Idle/Sweeping guard: a tick that lands while a sweep
	// is still running becomes a no-op instead of an overlapping pass.
	sweeping atomic.Bool
}

func New(st store.Store, ms *membership.Service, m *metrics.Metrics, cfg *config.Config, log *zap.SugaredLogger) *Sweeper {
	interval := cfg.Sweep.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:      st,
		membership: ms,
		metrics:    m,
		log:        log,
		interval:   interval,
		now:        time.Now,
	}
}

// SweepOnce revokes and deletes every past-due subscription. A row whose
// revocation fails is skipped and left for the next pass, so no user is ever
// deleted from the ledger while still inside the group. Returns the number of
// rows revoked.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	if !s.sweeping.CompareAndSwap(false, true) {
		return 0, nil
	}
	defer s.sweeping.Store(false)

	subs, err := s.store.ListExpiredSubscriptions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired subscriptions: %w", err)
	}

	revoked := 0
	for _, sub := range subs {
		if err := s.membership.RevokeAccess(ctx, sub.UserID, sub.GroupID); err != nil {
			s.metrics.SweepFailures.Inc()
			s.log.Errorw("sweep_revoke_failed",
				"user_id", sub.UserID, "group_id", sub.GroupID, "err", err)
			continue
		}
		if err := s.store.DeleteSubscription(ctx, sub.UserID, sub.GroupID); err != nil {
			s.log.Errorw("sweep_delete_failed",
				"user_id", sub.UserID, "group_id", sub.GroupID, "err", err)
			continue
		}
		s.metrics.SubscriptionsRevoked.Inc()
		revoked++
	}

	if len(subs) > 0 {
		s.log.Infow("sweep_completed", "expired", len(subs), "revoked", revoked)
	}
	return revoked, nil
}

// run ticks until stop is closed.
func (s *Sweeper) run(stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := s.SweepOnce(context.Background()); err != nil {
				s.log.Errorw("sweep_failed", "err", err)
			}
		case <-stop:
			return
		}
	}
}

func register(lc fx.Lifecycle, s *Sweeper, log *zap.SugaredLogger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting expiry sweeper", "interval", s.interval)
			go s.run(stop)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping expiry sweeper")
			close(stop)
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(register),
)
