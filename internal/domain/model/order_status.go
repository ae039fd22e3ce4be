package model

import (
	"fmt"
	"strings"
)

type OrderStatus string

// 新しいステータスを足すときはorderStatusesとvalidOrderStatusesにも追加する
const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusReady          OrderStatus = "ready"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// 進行順 + cancelled。エラーメッセージの候補一覧にも使う
var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:        {},
	OrderStatusConfirmed:      {},
	OrderStatusPreparing:      {},
	OrderStatusReady:          {},
	OrderStatusOutForDelivery: {},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
}

// 顧客がキャンセルできる状態
var cancellableStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusConfirmed: {},
}

// InvalidStatusError は列挙外のステータス文字列。Allowedは受け付ける値。
type InvalidStatusError struct {
	Value   string
	Allowed []string
}

func (e *InvalidStatusError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid status: %q", e.Value)
	}
	return fmt.Sprintf("invalid status: %q (allowed: %s)", e.Value, strings.Join(e.Allowed, ", "))
}

func statusNames[S ~string](ss []S) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// IllegalTransitionError は現在の状態から許されない遷移。
type IllegalTransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Message string
}

func (e *IllegalTransitionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", &InvalidStatusError{Value: s, Allowed: statusNames(orderStatuses)}
}

// 終端（これ以上遷移しない）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func (s OrderStatus) CanCancel() bool {
	_, ok := cancellableStatuses[s]
	return ok
}

// CancellableStatuses はガード付きUPDATEのWHERE句で使う。
func CancellableStatuses() []OrderStatus {
	return []OrderStatus{OrderStatusPending, OrderStatusConfirmed}
}

// CheckCancel は顧客キャンセルの可否。
func CheckCancel(current OrderStatus) error {
	if current.CanCancel() {
		return nil
	}
	return &IllegalTransitionError{
		From:    current,
		To:      OrderStatusCancelled,
		Message: "Order cannot be cancelled",
	}
}

// CheckAdminTransition は管理者による変更の可否。
// 管理者は前後どちらにも飛ばせるが、終端からは動かせない。
func CheckAdminTransition(current, next OrderStatus) error {
	if _, ok := validOrderStatuses[next]; !ok {
		return &InvalidStatusError{Value: string(next), Allowed: statusNames(orderStatuses)}
	}
	if current.IsTerminal() && current != next {
		return &IllegalTransitionError{
			From:    current,
			To:      next,
			Message: fmt.Sprintf("cannot change %s order", current),
		}
	}
	return nil
}
