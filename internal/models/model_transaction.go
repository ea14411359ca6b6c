package models

import (
	"time"

	"github.com/vipgate/vipgate/pkg/types"
)

// Transaction is a purchase intent. It is created pending and transitions to
// paid exactly once via a verified payment notification; rows are never
// deleted.
type Transaction struct {
	OrderID   string                  `gorm:"column:order_id;type:uuid;primary_key" json:"order_id"`
	UserID    int64                   `gorm:"column:user_id;type:bigint;not null;index:idx_tx_user_group,priority:1" json:"user_id"`
	GroupID   int64                   `gorm:"column:group_id;type:bigint;not null;index:idx_tx_user_group,priority:2" json:"group_id"`
	Duration  types.Duration          `gorm:"column:duration;type:varchar(8);not null" json:"duration"`
	Price     int64                   `gorm:"column:price;type:bigint;not null" json:"price"`
	Status    types.TransactionStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "transaction"
}

func (t *Transaction) Paid() bool {
	return t != nil && t.Status == types.TransactionStatusPaid
}
