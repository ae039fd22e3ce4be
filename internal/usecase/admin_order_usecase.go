package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catering/internal/domain/model"
	repo "catering/internal/repository"

	"github.com/samber/lo"
)

type AdminOrderUsecase struct {
	tx       repo.TransactionManager
	notifier StatusNotifier
	currency string
	now      func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, notifier StatusNotifier, currency string) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, notifier: notifier, currency: currency, now: time.Now}
}

type AdminListOrdersInput struct {
	Page   int
	Limit  int
	Status string
	UserID *int64
	From   *time.Time
	To     *time.Time
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminUpdatePaymentStatusInput struct {
	PaymentStatus string
}

// AdminListLogsInput は1注文の監査ログの絞り込み。未指定（nil/空）は条件にしない。
type AdminListLogsInput struct {
	AdminID *int64
	Action  string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, in AdminListOrdersInput) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}

	f := repo.AdminOrderListFilter{Page: in.Page, Limit: in.Limit, UserID: in.UserID, From: in.From, To: in.To}
	if s := strings.TrimSpace(in.Status); s != "" {
		status, err := model.ToOrderStatus(s)
		if err != nil {
			return OrderListOutput{}, err
		}
		f.Status = status
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: in.Page, Limit: in.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return &PersistenceError{Op: "list orders", Err: err}
		}

		ids := lo.Map(orders, func(o model.Order, _ int) int64 { return o.ID })
		items, err := r.OrderItems().ListByOrderIDs(ctx, ids)
		if err != nil {
			return &PersistenceError{Op: "list order items", Err: err}
		}

		out.Items = toOrderOutputs(orders, items, u.currency)
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// UpdateStatus は管理者によるステータス変更。
// 更新と監査ログは同じトランザクションで書き、コミット後に通知する。
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	//DBを見る前に列挙チェック
	next, err := model.ToOrderStatus(strings.TrimSpace(in.Status))
	if err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	changed := false
	now := u.now()

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("order %d: %w", orderID, repo.ErrNotFound)
		}
		if err != nil {
			return &PersistenceError{Op: "find order", Err: err}
		}

		// 終端ガード
		if err := model.CheckAdminTransition(o.Status, next); err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return &PersistenceError{Op: "list order items", Err: err}
		}

		// すでに同じなら何もしない（200）
		if o.Status == next {
			out = toOrderOutput(o, items, u.currency)
			return nil
		}

		//読んだ時のステータスのままなら更新
		before := o.Status
		ok, err := r.Orders().UpdateStatusFrom(ctx, orderID, []model.OrderStatus{before}, next)
		if err != nil {
			return &PersistenceError{Op: "update order status", Err: err}
		}
		if !ok {
			return ErrConflict
		}

		if err := r.AdminLogs().Create(ctx, model.AdminLog{
			AdminID:   actorAdminUserID,
			Action:    model.AuditActionUpdateOrderStatus,
			TableName: model.AuditTableOrders,
			RecordID:  orderID,
			OldValue:  snapshot("status", string(before)),
			NewValue:  snapshot("status", string(next)),
			CreatedAt: now,
		}); err != nil {
			return &PersistenceError{Op: "write admin log", Err: err}
		}

		o.Status = next
		o.UpdatedAt = now
		out = toOrderOutput(o, items, u.currency)
		changed = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed && u.notifier != nil {
		u.notifier.OrderStatusChanged(context.WithoutCancel(ctx), model.StatusChangeEvent{
			OrderID:     out.ID,
			OrderNumber: out.OrderNumber,
			UserID:      out.UserID,
			Status:      next,
			UpdatedBy:   actorAdminUserID,
			UpdatedAt:   now,
		})
	}
	return out, nil
}

// UpdatePaymentStatus は支払いフラグだけを変える。通知はしない。
func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdatePaymentStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next, err := model.ToPaymentStatus(strings.TrimSpace(in.PaymentStatus))
	if err != nil {
		return OrderOutput{}, err
	}

	var out OrderOutput
	now := u.now()

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if errors.Is(err, repo.ErrNotFound) {
			return fmt.Errorf("order %d: %w", orderID, repo.ErrNotFound)
		}
		if err != nil {
			return &PersistenceError{Op: "find order", Err: err}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return &PersistenceError{Op: "list order items", Err: err}
		}

		if o.PaymentStatus == next {
			out = toOrderOutput(o, items, u.currency)
			return nil
		}

		before := o.PaymentStatus
		ok, err := r.Orders().UpdatePaymentStatusFrom(ctx, orderID, before, next)
		if err != nil {
			return &PersistenceError{Op: "update payment status", Err: err}
		}
		if !ok {
			return ErrConflict
		}

		if err := r.AdminLogs().Create(ctx, model.AdminLog{
			AdminID:   actorAdminUserID,
			Action:    model.AuditActionUpdatePaymentStatus,
			TableName: model.AuditTableOrders,
			RecordID:  orderID,
			OldValue:  snapshot("payment_status", string(before)),
			NewValue:  snapshot("payment_status", string(next)),
			CreatedAt: now,
		}); err != nil {
			return &PersistenceError{Op: "write admin log", Err: err}
		}

		o.PaymentStatus = next
		o.UpdatedAt = now
		out = toOrderOutput(o, items, u.currency)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// ListLogs は1注文分の監査ログ（新しい順）。
func (u *AdminOrderUsecase) ListLogs(ctx context.Context, orderID int64, in AdminListLogsInput) ([]AdminLogOutput, error) {
	if orderID <= 0 {
		return []AdminLogOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Limit < 0 || in.Limit > 200 || in.Offset < 0 {
		return []AdminLogOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if in.AdminID != nil && *in.AdminID <= 0 {
		return []AdminLogOutput{}, NewHTTPError(http.StatusBadRequest, "invalid admin_id")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return []AdminLogOutput{}, NewHTTPError(http.StatusBadRequest, "invalid period")
	}
	action := model.AuditAction(strings.ToUpper(strings.TrimSpace(in.Action)))
	if action != "" && !action.Valid() {
		return []AdminLogOutput{}, NewHTTPError(http.StatusBadRequest, "invalid action")
	}

	var outs []AdminLogOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Orders().FindByID(ctx, orderID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("order %d: %w", orderID, repo.ErrNotFound)
			}
			return &PersistenceError{Op: "find order", Err: err}
		}

		logs, err := r.AdminLogs().List(ctx, repo.AdminLogFilter{
			TableName: model.AuditTableOrders,
			RecordID:  &orderID,
			AdminID:   in.AdminID,
			Action:    action,
			From:      in.From,
			To:        in.To,
			Limit:     in.Limit,
			Offset:    in.Offset,
		})
		if err != nil {
			return &PersistenceError{Op: "list admin logs", Err: err}
		}
		outs = lo.Map(logs, toAdminLogOutput)
		return nil
	})
	if err != nil {
		return []AdminLogOutput{}, err
	}
	return outs, nil
}

// {"status":"pending"} の形で残す
func snapshot(key, value string) string {
	b, err := json.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Sprintf(`{%q:%q}`, key, value)
	}
	return string(b)
}
