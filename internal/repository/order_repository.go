package repository

import (
	"context"
	"time"

	"catering/internal/domain/model"
)

// 顧客の注文一覧
type OrderListFilter struct {
	Page   int
	Limit  int
	Status model.OrderStatus
}

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status model.OrderStatus
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, f OrderListFilter) ([]model.Order, int64, error)
	//ヘッダだけ作る（明細はOrderItemRepository）
	Create(ctx context.Context, order model.Order) (int64, error)

	//現在のステータスがfromのどれかのときだけ更新する。falseなら更新なし
	UpdateStatusFrom(ctx context.Context, orderID int64, from []model.OrderStatus, to model.OrderStatus) (bool, error)
	UpdatePaymentStatusFrom(ctx context.Context, orderID int64, from model.PaymentStatus, to model.PaymentStatus) (bool, error)

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
