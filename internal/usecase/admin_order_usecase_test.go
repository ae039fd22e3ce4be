package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"catering/internal/domain/model"
	repo "catering/internal/repository"
	"catering/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type adminFixture struct {
	tx       *TxManagerMock
	orders   *OrderRepoMock
	items    *OrderItemRepoMock
	logs     *AdminLogRepoMock
	notifier *recordingNotifier
	uc       *usecase.AdminOrderUsecase
}

func newAdminFixture() *adminFixture {
	f := &adminFixture{
		tx:       new(TxManagerMock),
		orders:   new(OrderRepoMock),
		items:    new(OrderItemRepoMock),
		logs:     new(AdminLogRepoMock),
		notifier: &recordingNotifier{},
	}
	f.tx.Repos = &TxReposMock{orders: f.orders, orderItems: f.items, adminLogs: f.logs}
	f.tx.On("WithinTx", mock.Anything).Return(nil)
	f.uc = usecase.NewAdminOrderUsecase(f.tx, f.notifier, "INR")
	return f
}

// =====================
// List tests
// =====================

func TestAdminOrderUsecase_List_InvalidPage(t *testing.T) {
	f := newAdminFixture()

	out, err := f.uc.List(context.Background(), usecase.AdminListOrdersInput{Page: 0, Limit: 20})
	assert.Empty(t, out.Items)
	assertErrContains(t, err, "invalid page")
}

func TestAdminOrderUsecase_List_InvalidLimit(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.List(context.Background(), usecase.AdminListOrdersInput{Page: 1, Limit: 0})
	assertErrContains(t, err, "invalid limit")
}

func TestAdminOrderUsecase_List_InvalidStatusFilter(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.List(context.Background(), usecase.AdminListOrdersInput{Page: 1, Limit: 20, Status: "shipped"})

	var ise *model.InvalidStatusError
	assert.ErrorAs(t, err, &ise)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_List_Success_LoadsItemsInOneQuery(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	userID := int64(7)
	filter := repo.AdminOrderListFilter{Page: 1, Limit: 20, Status: model.OrderStatusPending, UserID: &userID}

	orders := []model.Order{
		{ID: 10, UserID: 7, Status: model.OrderStatusPending},
		{ID: 11, UserID: 7, Status: model.OrderStatusPending},
	}
	f.orders.On("ListAdmin", mock.Anything, filter).Return(orders, int64(2), nil)
	f.items.On("ListByOrderIDs", mock.Anything, []int64{10, 11}).Return(map[int64][]model.OrderItem{
		10: {{OrderID: 10, MenuItemID: 1, Quantity: 2}},
	}, nil)

	out, err := f.uc.List(ctx, usecase.AdminListOrdersInput{Page: 1, Limit: 20, Status: "pending", UserID: &userID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)
	require.Len(t, out.Items, 2)
	assert.Len(t, out.Items[0].Items, 1)
	assert.Empty(t, out.Items[1].Items)
	assert.Equal(t, "INR", out.Items[0].Currency)

	f.orders.AssertExpectations(t)
	f.items.AssertExpectations(t)
}

// =====================
// UpdateStatus tests
// =====================

func TestAdminOrderUsecase_UpdateStatus_UnauthorizedActor(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.UpdateStatus(context.Background(), 0, 1, usecase.AdminUpdateOrderStatusInput{Status: "confirmed"})
	assertErrContains(t, err, "unauthorized")
}

func TestAdminOrderUsecase_UpdateStatus_InvalidOrderID(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.UpdateStatus(context.Background(), 1, 0, usecase.AdminUpdateOrderStatusInput{Status: "confirmed"})
	assertErrContains(t, err, "invalid id")
}

// 列挙外はDBを見る前に弾く
func TestAdminOrderUsecase_UpdateStatus_InvalidStatus_NoDBAccess(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.UpdateStatus(context.Background(), 1, 1, usecase.AdminUpdateOrderStatusInput{Status: "shipped"})

	var ise *model.InvalidStatusError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "shipped", ise.Value)
	f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
}

func TestAdminOrderUsecase_UpdateStatus_NotFound(t *testing.T) {
	f := newAdminFixture()

	f.orders.On("FindByID", mock.Anything, int64(99)).Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.UpdateStatus(context.Background(), 1, 99, usecase.AdminUpdateOrderStatusInput{Status: "confirmed"})
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.Empty(t, f.notifier.Events())
}

func TestAdminOrderUsecase_UpdateStatus_SameStatus_NoOp(t *testing.T) {
	f := newAdminFixture()

	f.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusReady}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)

	out, err := f.uc.UpdateStatus(context.Background(), 1, 1, usecase.AdminUpdateOrderStatusInput{Status: "ready"})
	require.NoError(t, err)
	assert.Equal(t, "ready", out.Status)

	f.orders.AssertNotCalled(t, "UpdateStatusFrom", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.Events())
}

func TestAdminOrderUsecase_UpdateStatus_TerminalIsIllegal(t *testing.T) {
	for _, current := range []model.OrderStatus{model.OrderStatusDelivered, model.OrderStatusCancelled} {
		t.Run(string(current), func(t *testing.T) {
			f := newAdminFixture()
			f.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: current}, nil)

			_, err := f.uc.UpdateStatus(context.Background(), 1, 1, usecase.AdminUpdateOrderStatusInput{Status: "preparing"})

			var ite *model.IllegalTransitionError
			require.ErrorAs(t, err, &ite)
			assert.Equal(t, current, ite.From)
			f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, f.notifier.Events())
		})
	}
}

// 管理者は前にも後ろにも飛ばせる。更新・監査ログ・通知が1回ずつ
func TestAdminOrderUsecase_UpdateStatus_Audits_And_Notifies(t *testing.T) {
	ctx := context.Background()
	f := newAdminFixture()

	adminID := int64(999)
	orderID := int64(50)

	f.orders.On("FindByID", mock.Anything, orderID).Return(model.Order{
		ID:          orderID,
		OrderNumber: "ORD-1-ABCDEF",
		UserID:      42,
		Status:      model.OrderStatusReady,
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, orderID).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdateStatusFrom", mock.Anything, orderID, []model.OrderStatus{model.OrderStatusReady}, model.OrderStatusConfirmed).
		Return(true, nil)
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(a model.AdminLog) bool {
		// CreatedAt は now なので見ない
		return a.AdminID == adminID &&
			a.Action == model.AuditActionUpdateOrderStatus &&
			a.TableName == model.AuditTableOrders &&
			a.RecordID == orderID &&
			a.OldValue == `{"status":"ready"}` &&
			a.NewValue == `{"status":"confirmed"}`
	})).Return(nil).Once()

	out, err := f.uc.UpdateStatus(ctx, adminID, orderID, usecase.AdminUpdateOrderStatusInput{Status: " confirmed "})
	require.NoError(t, err)
	assert.Equal(t, "confirmed", out.Status)

	f.orders.AssertExpectations(t)
	f.logs.AssertExpectations(t)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, int64(42), events[0].UserID)
	assert.Equal(t, model.OrderStatusConfirmed, events[0].Status)
	assert.Equal(t, adminID, events[0].UpdatedBy)
	assert.Equal(t, "ORD-1-ABCDEF", events[0].OrderNumber)
}

// 読んだ後に別の更新が入ったら409、監査ログも通知もなし
func TestAdminOrderUsecase_UpdateStatus_ConcurrentChange_Conflict(t *testing.T) {
	f := newAdminFixture()

	f.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusPending}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdateStatusFrom", mock.Anything, int64(1), []model.OrderStatus{model.OrderStatusPending}, model.OrderStatusPreparing).
		Return(false, nil)

	_, err := f.uc.UpdateStatus(context.Background(), 1, 1, usecase.AdminUpdateOrderStatusInput{Status: "preparing"})
	assert.ErrorIs(t, err, usecase.ErrConflict)
	f.logs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.notifier.Events())
}

// 監査ログが書けなければ更新ごとエラー（通知しない）
func TestAdminOrderUsecase_UpdateStatus_AuditFailure(t *testing.T) {
	f := newAdminFixture()

	f.orders.On("FindByID", mock.Anything, int64(1)).Return(model.Order{ID: 1, Status: model.OrderStatusPending}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(1)).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdateStatusFrom", mock.Anything, int64(1), mock.Anything, model.OrderStatusConfirmed).Return(true, nil)
	f.logs.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := f.uc.UpdateStatus(context.Background(), 1, 1, usecase.AdminUpdateOrderStatusInput{Status: "confirmed"})

	var pe *usecase.PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "write admin log", pe.Op)
	assert.Empty(t, f.notifier.Events())
}

// =====================
// UpdatePaymentStatus tests
// =====================

func TestAdminOrderUsecase_UpdatePaymentStatus_Audits(t *testing.T) {
	f := newAdminFixture()

	f.orders.On("FindByID", mock.Anything, int64(3)).Return(model.Order{
		ID: 3, Status: model.OrderStatusDelivered, PaymentStatus: model.PaymentStatusPending,
	}, nil)
	f.items.On("ListByOrderID", mock.Anything, int64(3)).Return([]model.OrderItem{}, nil)
	f.orders.On("UpdatePaymentStatusFrom", mock.Anything, int64(3), model.PaymentStatusPending, model.PaymentStatusCompleted).
		Return(true, nil)
	f.logs.On("Create", mock.Anything, mock.MatchedBy(func(a model.AdminLog) bool {
		return a.Action == model.AuditActionUpdatePaymentStatus &&
			a.OldValue == `{"payment_status":"pending"}` &&
			a.NewValue == `{"payment_status":"completed"}`
	})).Return(nil)

	out, err := f.uc.UpdatePaymentStatus(context.Background(), 1, 3, usecase.AdminUpdatePaymentStatusInput{PaymentStatus: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "completed", out.PaymentStatus)
	assert.Equal(t, "delivered", out.Status)

	f.logs.AssertExpectations(t)
	assert.Empty(t, f.notifier.Events())
}

func TestAdminOrderUsecase_UpdatePaymentStatus_Invalid(t *testing.T) {
	f := newAdminFixture()

	_, err := f.uc.UpdatePaymentStatus(context.Background(), 1, 3, usecase.AdminUpdatePaymentStatusInput{PaymentStatus: "paid"})

	var ise *model.InvalidStatusError
	assert.ErrorAs(t, err, &ise)
}

// =====================
// ListLogs tests
// =====================

func TestAdminOrderUsecase_ListLogs(t *testing.T) {
	f := newAdminFixture()
	orderID := int64(8)

	f.orders.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID}, nil)
	f.logs.On("List", mock.Anything, mock.MatchedBy(func(fl repo.AdminLogFilter) bool {
		return fl.TableName == model.AuditTableOrders && fl.RecordID != nil && *fl.RecordID == orderID
	})).Return([]model.AdminLog{
		{ID: 2, AdminID: 1, Action: model.AuditActionUpdateOrderStatus, RecordID: orderID},
		{ID: 1, AdminID: 1, Action: model.AuditActionUpdateOrderStatus, RecordID: orderID},
	}, nil)

	out, err := f.uc.ListLogs(context.Background(), orderID, usecase.AdminListLogsInput{})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "UPDATE_ORDER_STATUS", out[0].Action)
}

func TestAdminOrderUsecase_ListLogs_OrderNotFound(t *testing.T) {
	f := newAdminFixture()
	f.orders.On("FindByID", mock.Anything, int64(8)).Return(model.Order{}, repo.ErrNotFound)

	_, err := f.uc.ListLogs(context.Background(), 8, usecase.AdminListLogsInput{})
	assert.ErrorIs(t, err, repo.ErrNotFound)
	f.logs.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestAdminOrderUsecase_ListLogs_PassesFilters(t *testing.T) {
	f := newAdminFixture()
	orderID := int64(8)
	adminID := int64(3)
	from := time.Date(2030, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	f.orders.On("FindByID", mock.Anything, orderID).Return(model.Order{ID: orderID}, nil)
	f.logs.On("List", mock.Anything, repo.AdminLogFilter{
		TableName: model.AuditTableOrders,
		RecordID:  &orderID,
		AdminID:   &adminID,
		Action:    model.AuditActionUpdatePaymentStatus,
		From:      &from,
		To:        &to,
		Limit:     10,
		Offset:    20,
	}).Return([]model.AdminLog{}, nil)

	out, err := f.uc.ListLogs(context.Background(), orderID, usecase.AdminListLogsInput{
		AdminID: &adminID,
		Action:  " update_payment_status ",
		From:    &from,
		To:      &to,
		Limit:   10,
		Offset:  20,
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	f.logs.AssertExpectations(t)
}

func TestAdminOrderUsecase_ListLogs_InvalidInput(t *testing.T) {
	zero := int64(0)
	from := time.Date(2030, 5, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	tests := []struct {
		name string
		in   usecase.AdminListLogsInput
		want string
	}{
		{name: "unknown action", in: usecase.AdminListLogsInput{Action: "DELETE_ORDER"}, want: "invalid action"},
		{name: "reversed period", in: usecase.AdminListLogsInput{From: &from, To: &to}, want: "invalid period"},
		{name: "admin id zero", in: usecase.AdminListLogsInput{AdminID: &zero}, want: "invalid admin_id"},
		{name: "limit too large", in: usecase.AdminListLogsInput{Limit: 201}, want: "invalid limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdminFixture()
			_, err := f.uc.ListLogs(context.Background(), 8, tt.in)

			he, ok := usecase.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, he.Status)
			assertErrContains(t, err, tt.want)
			f.tx.AssertNotCalled(t, "WithinTx", mock.Anything)
		})
	}
}
