package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文ヘッダ
// total_amount = subtotal + tax + delivery_charge を常に満たす。
type Order struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string          `gorm:"type:varchar(40);not null;uniqueIndex" json:"order_number"`
	UserID          int64           `gorm:"not null;index" json:"user_id"`
	Subtotal        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax"`
	DeliveryCharge  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"delivery_charge"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null" json:"payment_status"`
	DeliveryAddress string          `gorm:"type:text;not null" json:"delivery_address"`
	DeliveryDate    time.Time       `gorm:"type:date;not null" json:"delivery_date"`
	DeliveryTime    string          `gorm:"type:varchar(8);not null" json:"delivery_time"`
	Notes           string          `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`

	//明細は注文が所有する（注文削除で一緒に消える）
	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}
