package models

import (
	"time"

	"github.com/vipgate/vipgate/pkg/types"
)

// Group is a managed VIP community. Rows are written by the /addgroup admin
// command and are read-only to the purchase and membership paths.
type Group struct {
	GroupID   int64     `gorm:"column:group_id;primaryKey;autoIncrement:false" json:"group_id"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	Price1d   int64     `gorm:"column:price_1d;type:bigint;not null" json:"price_1d"`
	Price7d   int64     `gorm:"column:price_7d;type:bigint;not null" json:"price_7d"`
	Price30d  int64     `gorm:"column:price_30d;type:bigint;not null" json:"price_30d"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Group) TableName() string {
	return "groups"
}

// PriceFor returns the price of a package, or 0 for unknown durations.
func (g *Group) PriceFor(d types.Duration) int64 {
	if g == nil {
		return 0
	}
	switch d {
	case types.Duration1d:
		return g.Price1d
	case types.Duration7d:
		return g.Price7d
	case types.Duration30d:
		return g.Price30d
	}
	return 0
}
