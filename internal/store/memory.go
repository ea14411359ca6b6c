package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/pkg/types"
)

type subKey struct {
	userID  int64
	groupID int64
}

// memoryStore is a mutex-guarded in-memory ledger used by tests and local
// development. Values are copied on the way in and out so callers never share
// row memory.
type memoryStore struct {
	mu sync.RWMutex

	groups        map[int64]models.Group
	transactions  map[string]models.Transaction
	subscriptions map[subKey]models.Subscription
	logs          []models.PaymentNotificationLog
}

func NewMemory() Store {
	return &memoryStore{
		groups:        make(map[int64]models.Group),
		transactions:  make(map[string]models.Transaction),
		subscriptions: make(map[subKey]models.Subscription),
	}
}

func (s *memoryStore) UpsertGroup(_ context.Context, g *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.GroupID] = *g
	return nil
}

func (s *memoryStore) GetGroup(_ context.Context, groupID int64) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (s *memoryStore) ListGroups(_ context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		cp := g
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryStore) CreateTransaction(_ context.Context, t *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transactions[t.OrderID]; exists {
		return fmt.Errorf("transaction %s already exists", t.OrderID)
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	s.transactions[t.OrderID] = *t
	return nil
}

func (s *memoryStore) GetTransaction(_ context.Context, orderID string) (*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[orderID]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *memoryStore) MarkTransactionPaid(_ context.Context, orderID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transactions[orderID]
	if !ok || t.Status != types.TransactionStatusPending {
		return false, nil
	}
	t.Status = types.TransactionStatusPaid
	t.UpdatedAt = time.Now()
	s.transactions[orderID] = t
	return true, nil
}

// ScanTransactions supports equality and in filters only; that is all the
// tests and local tooling need.
func (s *memoryStore) ScanTransactions(_ context.Context, req *ScanTransactionsRequest) (*ScanTransactionsResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Transaction
	for _, t := range s.transactions {
		if matchesFilters(&t, req.Filters) {
			cp := t
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if req.From > 0 {
		if req.From >= len(matched) {
			matched = nil
		} else {
			matched = matched[req.From:]
		}
	}
	size := req.Size
	if size <= 0 {
		size = 10
	}
	if len(matched) > size {
		matched = matched[:size]
	}
	return &ScanTransactionsResponse{Items: matched, Total: total}, nil
}

func matchesFilters(t *models.Transaction, filters []*types.CommonFilter) bool {
	for _, f := range filters {
		if f == nil || len(f.Values) == 0 {
			continue
		}
		var field any
		switch f.Field {
		case "order_id":
			field = t.OrderID
		case "user_id":
			field = t.UserID
		case "group_id":
			field = t.GroupID
		case "status":
			field = string(t.Status)
		case "duration":
			field = string(t.Duration)
		default:
			continue
		}
		switch f.Operator {
		case types.CommonFilterOperatorEq:
			if fmt.Sprint(field) != fmt.Sprint(f.Values[0]) {
				return false
			}
		case types.CommonFilterOperatorIn:
			found := false
			for _, v := range f.Values {
				if fmt.Sprint(field) == fmt.Sprint(v) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}

func (s *memoryStore) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey{userID: sub.UserID, groupID: sub.GroupID}
	existing, ok := s.subscriptions[key]
	cp := *sub
	cp.UpdatedAt = time.Now()
	if ok {
		cp.CreatedAt = existing.CreatedAt
	} else {
		cp.CreatedAt = cp.UpdatedAt
	}
	s.subscriptions[key] = cp
	return nil
}

func (s *memoryStore) GetSubscription(_ context.Context, userID, groupID int64) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[subKey{userID: userID, groupID: groupID}]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

func (s *memoryStore) DeleteSubscription(_ context.Context, userID, groupID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subscriptions, subKey{userID: userID, groupID: groupID})
	return nil
}

func (s *memoryStore) ListExpiredSubscriptions(_ context.Context, before time.Time) ([]*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Subscription
	for _, sub := range s.subscriptions {
		if sub.ExpireAt.Before(before) {
			cp := sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) SaveNotificationLog(_ context.Context, l *models.PaymentNotificationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, *l)
	return nil
}
