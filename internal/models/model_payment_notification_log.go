package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationLog is the audit trail of inbound gateway webhooks.
// Data holds the raw payload exactly as received.
type PaymentNotificationLog struct {
	ID        string                       `gorm:"column:id;type:uuid;primary_key" json:"id"`
	TraceID   string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OrderID   string                       `gorm:"column:order_id;type:varchar(128);index" json:"order_id"`
	UserID    *int64                       `gorm:"column:user_id;type:bigint" json:"user_id"`
	Data      datatypes.JSON               `gorm:"column:data;type:jsonb" json:"data"`
	Result    *datatypes.JSON              `gorm:"column:result;type:jsonb" json:"result"`
	Status    PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
