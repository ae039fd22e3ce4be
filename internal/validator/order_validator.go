package validator

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// 日付の受け付け形式
const DateLayout = "2006-01-02"

// 明細1行（正規化済み）
type CartLine struct {
	MenuItemID          int64
	Quantity            int64
	SpecialInstructions string
}

// 注文リクエスト（正規化済み）
type OrderRequest struct {
	Items           []CartLine
	DeliveryDate    string
	DeliveryTime    string
	DeliveryAddress string
	Notes           string
}

// FieldErrors はフィールド名→メッセージ。空なら有効。
type FieldErrors map[string]string

// 同じフィールドは最初のメッセージを残す
func (f FieldErrors) add(field, msg string) {
	if _, ok := f[field]; ok {
		return
	}
	f[field] = msg
}

// Merge は other を f に足す（既存キーは上書きしない）。
func (f FieldErrors) Merge(other FieldErrors) FieldErrors {
	if f == nil {
		f = FieldErrors{}
	}
	for k, v := range other {
		f.add(k, v)
	}
	return f
}

// Fields はキーをソートして返す。
func (f FieldErrors) Fields() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Rules は上限値。
type Rules struct {
	MaxQuantityPerLine int64
	MaxLines           int
	MaxNotesLength     int
}

func DefaultRules() Rules {
	return Rules{
		MaxQuantityPerLine: 1000,
		MaxLines:           100,
		MaxNotesLength:     1000,
	}
}

// 明細のキーの別名（先にあるものが優先）
var (
	menuItemIDKeys   = []string{"menu_item_id", "menuItemId", "menu_item", "id"}
	quantityKeys     = []string{"quantity", "qty", "quantity_ordered"}
	instructionsKeys = []string{"special_instructions", "specialInstructions", "instructions"}

	deliveryDateKeys    = []string{"delivery_date", "deliveryDate"}
	deliveryTimeKeys    = []string{"delivery_time", "deliveryTime"}
	deliveryAddressKeys = []string{"delivery_address", "deliveryAddress"}
	notesKeys           = []string{"notes"}
)

// NormalizeOrderRequest はJSONをそのままデコードしたmapを型付きに直す。
// 別名キー・数値文字列をここで吸収し、形の崩れはパニックせずFieldErrorsに入れる。
func NormalizeOrderRequest(raw map[string]any) (OrderRequest, FieldErrors) {
	errs := FieldErrors{}
	var req OrderRequest

	if raw == nil {
		errs.add("items", "At least one item is required")
		return req, errs
	}

	req.DeliveryDate = stringField(raw, deliveryDateKeys, "delivery_date", errs)
	req.DeliveryTime = stringField(raw, deliveryTimeKeys, "delivery_time", errs)
	req.DeliveryAddress = stringField(raw, deliveryAddressKeys, "delivery_address", errs)
	req.Notes = stringField(raw, notesKeys, "notes", errs)

	rawItems, ok := raw["items"]
	if !ok || rawItems == nil {
		errs.add("items", "At least one item is required")
		return req, errs
	}
	list, ok := rawItems.([]any)
	if !ok {
		errs.add("items", "Items must be an array")
		return req, errs
	}

	req.Items = make([]CartLine, 0, len(list))
	for i, v := range list {
		prefix := fmt.Sprintf("items[%d]", i)
		obj, ok := v.(map[string]any)
		if !ok {
			errs.add(prefix, "Item must be an object")
			req.Items = append(req.Items, CartLine{})
			continue
		}

		var line CartLine
		if val, found := lookup(obj, menuItemIDKeys); found {
			id, err := toInt64(val)
			if err != nil {
				errs.add(prefix+".menu_item_id", "Menu item ID must be a positive integer")
			}
			line.MenuItemID = id
		}
		if val, found := lookup(obj, quantityKeys); found {
			q, err := toInt64(val)
			if err != nil {
				errs.add(prefix+".quantity", "Quantity must be a positive integer")
			}
			line.Quantity = q
		}
		if val, found := lookup(obj, instructionsKeys); found && val != nil {
			s, ok := val.(string)
			if !ok {
				errs.add(prefix+".special_instructions", "Special instructions must be a string")
			}
			line.SpecialInstructions = strings.TrimSpace(s)
		}
		req.Items = append(req.Items, line)
	}

	return req, errs
}

// ValidateOrder は全ルールを見て違反をすべて返す。
func ValidateOrder(req OrderRequest, rules Rules) FieldErrors {
	errs := FieldErrors{}

	if len(req.Items) == 0 {
		errs.add("items", "At least one item is required")
	}
	if rules.MaxLines > 0 && len(req.Items) > rules.MaxLines {
		errs.add("items", fmt.Sprintf("No more than %d items per order", rules.MaxLines))
	}
	for i, it := range req.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if it.MenuItemID <= 0 {
			errs.add(prefix+".menu_item_id", "Menu item ID must be a positive integer")
		}
		if it.Quantity <= 0 {
			errs.add(prefix+".quantity", "Quantity must be a positive integer")
		} else if rules.MaxQuantityPerLine > 0 && it.Quantity > rules.MaxQuantityPerLine {
			errs.add(prefix+".quantity", fmt.Sprintf("Quantity must be at most %d", rules.MaxQuantityPerLine))
		}
	}

	date := strings.TrimSpace(req.DeliveryDate)
	if date == "" {
		errs.add("delivery_date", "Delivery date is required")
	} else if _, err := time.Parse(DateLayout, date); err != nil {
		errs.add("delivery_date", "Delivery date must be YYYY-MM-DD")
	}

	if strings.TrimSpace(req.DeliveryAddress) == "" {
		errs.add("delivery_address", "Delivery address is required")
	}

	if rules.MaxNotesLength > 0 && utf8.RuneCountInString(req.Notes) > rules.MaxNotesLength {
		errs.add("notes", fmt.Sprintf("Notes must be at most %d characters", rules.MaxNotesLength))
	}

	return errs
}

func lookup(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// 文字列フィールド。nullは未指定と同じ扱い。
func stringField(raw map[string]any, keys []string, field string, errs FieldErrors) string {
	v, found := lookup(raw, keys)
	if !found || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		errs.add(field, "Must be a string")
		return ""
	}
	return strings.TrimSpace(s)
}

// float64で正確に表せる整数の上限
const maxSafeInteger = 1 << 53

// JSON由来の値を整数にする（"2" や 2.0 も受ける）
func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return floatToInt64(t)
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		//UseNumberだと 2.0 や 1e1 はここに来る
		f, err := t.Float64()
		if err != nil {
			return 0, err
		}
		return floatToInt64(f)
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) > maxSafeInteger {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return int64(f), nil
}
