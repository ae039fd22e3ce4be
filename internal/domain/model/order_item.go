package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// unit_priceは注文時点のカタログ価格のコピー。後から変わらない。
type OrderItem struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64           `gorm:"not null;index" json:"order_id"`
	MenuItemID          int64           `gorm:"not null;index" json:"menu_item_id"`
	NameSnapshot        string          `gorm:"type:varchar(255);not null;default:''" json:"name"`
	Quantity            int64           `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	TotalPrice          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	SpecialInstructions string          `gorm:"type:text" json:"special_instructions"`
	CreatedAt           time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
