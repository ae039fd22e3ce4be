package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"catering/internal/deliverytime"
	"catering/internal/domain/model"
	"catering/internal/pricing"
	repo "catering/internal/repository"
	"catering/internal/validator"

	"github.com/samber/lo"
)

// 注文番号の衝突でトランザクションごとやり直す回数
const maxOrderNumberAttempts = 3

// StatusNotifier はステータス変更をコミット後に知らせる先。失敗しても呼び出し元へは返さない。
type StatusNotifier interface {
	OrderStatusChanged(ctx context.Context, ev model.StatusChangeEvent)
}

type OrderUsecaseConfig struct {
	Rules     validator.Rules
	Currency  string
	TxTimeout time.Duration
	Numbers   OrderNumberGenerator
	Now       func() time.Time
}

type OrderUsecase struct {
	tx       repo.TransactionManager
	menu     repo.MenuItemRepository
	pricing  *pricing.Engine
	notifier StatusNotifier

	rules     validator.Rules
	currency  string
	txTimeout time.Duration
	numbers   OrderNumberGenerator
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	menu repo.MenuItemRepository,
	engine *pricing.Engine,
	notifier StatusNotifier,
	cfg OrderUsecaseConfig,
) *OrderUsecase {
	u := &OrderUsecase{
		tx:        tx,
		menu:      menu,
		pricing:   engine,
		notifier:  notifier,
		rules:     cfg.Rules,
		currency:  cfg.Currency,
		txTimeout: cfg.TxTimeout,
		numbers:   cfg.Numbers,
		now:       cfg.Now,
	}
	if u.numbers == nil {
		u.numbers = NewOrderNumberGenerator()
	}
	if u.now == nil {
		u.now = time.Now
	}
	return u
}

type ListOrdersInput struct {
	Page   int
	Limit  int
	Status string
}

// PlaceOrder はカートの内容から注文を1件作る。
// ヘッダと明細は同じトランザクションで書き、途中で失敗したら何も残らない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, raw map[string]any) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	req, fieldErrs := validator.NormalizeOrderRequest(raw)
	fieldErrs = fieldErrs.Merge(validator.ValidateOrder(req, u.rules))
	if len(fieldErrs) > 0 {
		return OrderOutput{}, &ValidationError{Fields: fieldErrs}
	}

	deliveryTime, err := deliverytime.Normalize(req.DeliveryTime)
	if err != nil {
		return OrderOutput{}, err
	}
	deliveryDate, err := time.Parse(validator.DateLayout, strings.TrimSpace(req.DeliveryDate))
	if err != nil {
		// ValidateOrderで弾いているので通常来ない
		return OrderOutput{}, &ValidationError{Fields: validator.FieldErrors{"delivery_date": "Delivery date must be YYYY-MM-DD"}}
	}

	lines := lo.Map(req.Items, func(it validator.CartLine, _ int) pricing.Line {
		return pricing.Line{MenuItemID: it.MenuItemID, Quantity: it.Quantity}
	})

	//トランザクション前に一度見積もって、存在しない商品などは早めに400
	if _, err := u.pricing.Quote(ctx, lines, u.menu); err != nil {
		return OrderOutput{}, pricingError("quote", err)
	}

	txCtx := ctx
	if u.txTimeout > 0 {
		var cancel context.CancelFunc
		txCtx, cancel = context.WithTimeout(ctx, u.txTimeout)
		defer cancel()
	}

	var out OrderOutput
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		now := u.now()
		number, err := u.numbers.Generate(now)
		if err != nil {
			return OrderOutput{}, &PersistenceError{Op: "generate order number", Err: err}
		}

		err = u.tx.WithinTx(txCtx, func(r repo.TxRepos) error {
			//価格はトランザクション内で読み直したものを確定値にする
			q, err := u.pricing.Quote(txCtx, lines, r.MenuItems())
			if err != nil {
				return err
			}

			order := model.Order{
				OrderNumber:     number,
				UserID:          userID,
				Subtotal:        q.Subtotal,
				Tax:             q.Tax,
				DeliveryCharge:  q.DeliveryCharge,
				TotalAmount:     q.Total,
				Status:          model.OrderStatusPending,
				PaymentStatus:   model.PaymentStatusPending,
				DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
				DeliveryDate:    deliveryDate,
				DeliveryTime:    deliveryTime,
				Notes:           req.Notes,
				CreatedAt:       now,
				UpdatedAt:       now,
			}
			orderID, err := r.Orders().Create(txCtx, order)
			if err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			order.ID = orderID

			//スナップショット
			items := make([]model.OrderItem, 0, len(q.Lines))
			for i, l := range q.Lines {
				items = append(items, model.OrderItem{
					OrderID:             orderID,
					MenuItemID:          l.MenuItemID,
					NameSnapshot:        l.Name,
					Quantity:            l.Quantity,
					UnitPrice:           l.UnitPrice,
					TotalPrice:          l.LineTotal,
					SpecialInstructions: req.Items[i].SpecialInstructions,
					CreatedAt:           now,
				})
			}
			if err := r.OrderItems().CreateBulk(txCtx, orderID, items); err != nil {
				return fmt.Errorf("create order items: %w", err)
			}

			out = toOrderOutput(order, items, u.currency)
			return nil
		})
		if err == nil {
			return out, nil
		}
		if errors.Is(err, repo.ErrDuplicate) && attempt < maxOrderNumberAttempts {
			continue
		}
		return OrderOutput{}, pricingError("place order", err)
	}

	return OrderOutput{}, &PersistenceError{Op: "place order", Err: repo.ErrDuplicate}
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, in ListOrdersInput) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	filter := repo.OrderListFilter{Page: in.Page, Limit: in.Limit}
	if s := strings.TrimSpace(in.Status); s != "" {
		status, err := model.ToOrderStatus(s)
		if err != nil {
			return OrderListOutput{}, err
		}
		filter.Status = status
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: in.Page, Limit: in.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, filter)
		if err != nil {
			return &PersistenceError{Op: "list orders", Err: err}
		}

		//明細はまとめて1回で取る
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

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return &PersistenceError{Op: "list order items", Err: err}
		}

		out = toOrderOutput(o, items, u.currency)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// CancelOrder は購入者本人によるキャンセル。pending/confirmedのときだけ可能。
func (u *OrderUsecase) CancelOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	now := u.now()

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnedOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		if err := model.CheckCancel(o.Status); err != nil {
			return err
		}

		//読んだ後に進められていたら0件更新になる
		ok, err := r.Orders().UpdateStatusFrom(ctx, orderID, model.CancellableStatuses(), model.OrderStatusCancelled)
		if err != nil {
			return &PersistenceError{Op: "cancel order", Err: err}
		}
		if !ok {
			return &model.IllegalTransitionError{
				From:    o.Status,
				To:      model.OrderStatusCancelled,
				Message: "Order cannot be cancelled",
			}
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return &PersistenceError{Op: "list order items", Err: err}
		}

		o.Status = model.OrderStatusCancelled
		o.UpdatedAt = now
		out = toOrderOutput(o, items, u.currency)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.notify(ctx, out, userID, now)
	return out, nil
}

func (u *OrderUsecase) notify(ctx context.Context, o OrderOutput, by int64, at time.Time) {
	if u.notifier == nil {
		return
	}
	u.notifier.OrderStatusChanged(context.WithoutCancel(ctx), model.StatusChangeEvent{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Status:      model.OrderStatus(o.Status),
		UpdatedBy:   by,
		UpdatedAt:   at,
	})
}

// 他人の注文は「存在しない扱い」にする
func findOwnedOrder(ctx context.Context, r repo.TxRepos, userID, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, fmt.Errorf("order %d: %w", orderID, repo.ErrNotFound)
	}
	if err != nil {
		return model.Order{}, &PersistenceError{Op: "find order", Err: err}
	}
	if o.UserID != userID {
		return model.Order{}, fmt.Errorf("order %d: %w", orderID, repo.ErrNotFound)
	}
	return o, nil
}

// 見積もりの業務エラーはそのまま、それ以外はPersistenceErrorに包む
func pricingError(op string, err error) error {
	var notFound *pricing.ItemNotFoundError
	var unavailable *pricing.ItemUnavailableError
	var pe *PersistenceError
	switch {
	case errors.As(err, &notFound), errors.As(err, &unavailable), errors.As(err, &pe):
		return err
	default:
		return &PersistenceError{Op: op, Err: err}
	}
}
