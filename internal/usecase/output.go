package usecase

import (
	"time"

	"catering/internal/domain/model"
	"catering/internal/validator"

	"github.com/samber/lo"
)

type OrderItemOutput struct {
	MenuItemID          int64  `json:"menu_item_id"`
	Name                string `json:"name"`
	Quantity            int64  `json:"quantity"`
	UnitPrice           Amount `json:"unit_price"`
	TotalPrice          Amount `json:"total_price"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	OrderNumber     string            `json:"order_number"`
	UserID          int64             `json:"user_id"`
	Subtotal        Amount            `json:"subtotal"`
	Tax             Amount            `json:"tax"`
	DeliveryCharge  Amount            `json:"delivery_charge"`
	TotalAmount     Amount            `json:"total_amount"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`
	PaymentStatus   string            `json:"payment_status"`
	DeliveryDate    string            `json:"delivery_date"`
	DeliveryTime    string            `json:"delivery_time"`
	DeliveryAddress string            `json:"delivery_address"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type AdminLogOutput struct {
	ID        int64     `json:"id"`
	AdminID   int64     `json:"admin_id"`
	Action    string    `json:"action"`
	TableName string    `json:"table_name"`
	RecordID  int64     `json:"record_id"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

func toOrderOutput(o model.Order, items []model.OrderItem, currency string) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			MenuItemID:          it.MenuItemID,
			Name:                it.NameSnapshot,
			Quantity:            it.Quantity,
			UnitPrice:           Amount(it.UnitPrice),
			TotalPrice:          Amount(it.TotalPrice),
			SpecialInstructions: it.SpecialInstructions,
		})
	}

	return OrderOutput{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Subtotal:        Amount(o.Subtotal),
		Tax:             Amount(o.Tax),
		DeliveryCharge:  Amount(o.DeliveryCharge),
		TotalAmount:     Amount(o.TotalAmount),
		Currency:        currency,
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryDate:    o.DeliveryDate.Format(validator.DateLayout),
		DeliveryTime:    o.DeliveryTime,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           outItems,
	}
}

func toOrderOutputs(orders []model.Order, itemsByOrder map[int64][]model.OrderItem, currency string) []OrderOutput {
	return lo.Map(orders, func(o model.Order, _ int) OrderOutput {
		return toOrderOutput(o, itemsByOrder[o.ID], currency)
	})
}

func toAdminLogOutput(l model.AdminLog, _ int) AdminLogOutput {
	return AdminLogOutput{
		ID:        l.ID,
		AdminID:   l.AdminID,
		Action:    string(l.Action),
		TableName: l.TableName,
		RecordID:  l.RecordID,
		OldValue:  l.OldValue,
		NewValue:  l.NewValue,
		CreatedAt: l.CreatedAt,
	}
}
