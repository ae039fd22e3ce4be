// Package pricing computes order totals from authoritative catalog prices.
// Client supplied prices are never read.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"catering/internal/domain/model"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// 金額は小数2桁
const currencyPlaces = 2

// Config holds the business constants of the pricing rules.
type Config struct {
	TaxRate decimal.Decimal
	// subtotal がこれを「超える」と送料無料
	FreeDeliveryThreshold decimal.Decimal
	DeliveryCharge        decimal.Decimal
}

func DefaultConfig() Config {
	return Config{
		TaxRate:               decimal.RequireFromString("0.05"),
		FreeDeliveryThreshold: decimal.NewFromInt(500),
		DeliveryCharge:        decimal.NewFromInt(50),
	}
}

// Catalog is the read side of the menu the engine prices against.
type Catalog interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error)
}

// ItemNotFoundError names a menu item that does not exist in the catalog.
type ItemNotFoundError struct {
	MenuItemID int64
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %d not found", e.MenuItemID)
}

// ItemUnavailableError names a menu item that exists but cannot be ordered.
type ItemUnavailableError struct {
	MenuItemID int64
	Name       string
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("menu item %d (%s) is not available", e.MenuItemID, e.Name)
}

type Line struct {
	MenuItemID int64
	Quantity   int64
}

type LineDetail struct {
	MenuItemID int64
	Name       string
	Quantity   int64
	UnitPrice  decimal.Decimal
	LineTotal  decimal.Decimal
}

type Quote struct {
	Lines          []LineDetail
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
}

type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Quote prices lines in request order. Lines for the same menu item stay separate.
func (e *Engine) Quote(ctx context.Context, lines []Line, catalog Catalog) (Quote, error) {
	if len(lines) == 0 {
		return Quote{}, errors.New("no lines to price")
	}

	ids := lo.Uniq(lo.Map(lines, func(l Line, _ int) int64 { return l.MenuItemID }))
	items, err := catalog.FindByIDs(ctx, ids)
	if err != nil {
		return Quote{}, fmt.Errorf("catalog.FindByIDs: %w", err)
	}
	byID := lo.KeyBy(items, func(m model.MenuItem) int64 { return m.ID })

	q := Quote{Lines: make([]LineDetail, 0, len(lines))}
	subtotal := decimal.Zero

	for _, l := range lines {
		item, ok := byID[l.MenuItemID]
		if !ok {
			return Quote{}, &ItemNotFoundError{MenuItemID: l.MenuItemID}
		}
		if !item.IsAvailable {
			return Quote{}, &ItemUnavailableError{MenuItemID: item.ID, Name: item.Name}
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(l.Quantity))
		subtotal = subtotal.Add(lineTotal)

		q.Lines = append(q.Lines, LineDetail{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   l.Quantity,
			UnitPrice:  item.Price,
			LineTotal:  lineTotal,
		})
	}

	q.Subtotal = subtotal
	q.Tax = e.Tax(subtotal)
	q.DeliveryCharge = e.DeliveryCharge(subtotal)
	q.Total = q.Subtotal.Add(q.Tax).Add(q.DeliveryCharge)

	return q, nil
}

// Tax rounds once, here. Everything after is exact addition.
func (e *Engine) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(e.cfg.TaxRate).Round(currencyPlaces)
}

func (e *Engine) DeliveryCharge(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(e.cfg.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return e.cfg.DeliveryCharge
}
