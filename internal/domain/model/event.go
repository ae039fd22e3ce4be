package model

import "time"

// 通知用（保存しない）
type StatusChangeEvent struct {
	OrderID     int64
	OrderNumber string
	//購入者。通知先の部屋を決める。
	UserID    int64
	Status    OrderStatus
	UpdatedBy int64
	UpdatedAt time.Time
}
