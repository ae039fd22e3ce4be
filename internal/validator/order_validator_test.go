package validator_test

import (
	"encoding/json"
	"strings"
	"testing"

	"catering/internal/validator"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// JSON文字列からmapを作る（ハンドラと同じデコード経路）
func decode(t *testing.T, body string) map[string]any {
	t.Helper()
	var raw map[string]any
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&raw))
	return raw
}

func TestNormalizeOrderRequest_Aliases(t *testing.T) {
	tests := []struct {
		name string
		item string
		want validator.CartLine
	}{
		{
			name: "canonical keys",
			item: `{"menu_item_id": 3, "quantity": 2, "special_instructions": " no onion "}`,
			want: validator.CartLine{MenuItemID: 3, Quantity: 2, SpecialInstructions: "no onion"},
		},
		{
			name: "id and qty aliases",
			item: `{"id": 4, "qty": 5}`,
			want: validator.CartLine{MenuItemID: 4, Quantity: 5},
		},
		{
			name: "camel case aliases",
			item: `{"menuItemId": 6, "quantity_ordered": 1, "specialInstructions": "spicy"}`,
			want: validator.CartLine{MenuItemID: 6, Quantity: 1, SpecialInstructions: "spicy"},
		},
		{
			name: "menu_item alias and instructions",
			item: `{"menu_item": 8, "qty": 2, "instructions": "extra napkins"}`,
			want: validator.CartLine{MenuItemID: 8, Quantity: 2, SpecialInstructions: "extra napkins"},
		},
		{
			name: "numeric strings",
			item: `{"menu_item_id": "7", "quantity": " 3 "}`,
			want: validator.CartLine{MenuItemID: 7, Quantity: 3},
		},
		{
			name: "integral float",
			item: `{"menu_item_id": 9.0, "quantity": 2.0}`,
			want: validator.CartLine{MenuItemID: 9, Quantity: 2},
		},
		{
			name: "exponent form",
			item: `{"id": 1e1, "qty": 2.50e1}`,
			want: validator.CartLine{MenuItemID: 10, Quantity: 25},
		},
		{
			name: "canonical key wins over alias",
			item: `{"menu_item_id": 1, "id": 99, "quantity": 2, "qty": 50}`,
			want: validator.CartLine{MenuItemID: 1, Quantity: 2},
		},
		{
			name: "null instructions",
			item: `{"menu_item_id": 1, "quantity": 1, "special_instructions": null}`,
			want: validator.CartLine{MenuItemID: 1, Quantity: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := decode(t, `{"items": [`+tt.item+`], "delivery_date": "2030-05-01", "delivery_time": "14:30", "delivery_address": "1 Main St"}`)

			req, errs := validator.NormalizeOrderRequest(raw)
			assert.Empty(t, errs)
			require.Len(t, req.Items, 1)
			if diff := cmp.Diff(tt.want, req.Items[0]); diff != "" {
				t.Errorf("line mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeOrderRequest_TopLevelAliases(t *testing.T) {
	raw := decode(t, `{
		"items": [{"id": 1, "qty": 1}],
		"deliveryDate": "2030-05-01",
		"deliveryTime": "2:30 PM",
		"deliveryAddress": "  1 Main St ",
		"notes": "ring twice"
	}`)

	req, errs := validator.NormalizeOrderRequest(raw)
	assert.Empty(t, errs)

	want := validator.OrderRequest{
		Items:           []validator.CartLine{{MenuItemID: 1, Quantity: 1}},
		DeliveryDate:    "2030-05-01",
		DeliveryTime:    "2:30 PM",
		DeliveryAddress: "1 Main St",
		Notes:           "ring twice",
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeOrderRequest_MalformedShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "items missing", body: `{"delivery_date": "2030-01-01"}`, wantField: "items"},
		{name: "items null", body: `{"items": null}`, wantField: "items"},
		{name: "items is object", body: `{"items": {"id": 1}}`, wantField: "items"},
		{name: "item is number", body: `{"items": [5]}`, wantField: "items[0]"},
		{name: "id is bool", body: `{"items": [{"id": true, "qty": 1}]}`, wantField: "items[0].menu_item_id"},
		{name: "qty is fraction", body: `{"items": [{"id": 1, "qty": 1.5}]}`, wantField: "items[0].quantity"},
		{name: "qty is fractional exponent", body: `{"items": [{"id": 1, "qty": 1.5e0}]}`, wantField: "items[0].quantity"},
		{name: "qty beyond safe range", body: `{"items": [{"id": 1, "qty": 1e300}]}`, wantField: "items[0].quantity"},
		{name: "qty is word", body: `{"items": [{"id": 1, "qty": "two"}]}`, wantField: "items[0].quantity"},
		{name: "instructions is number", body: `{"items": [{"id": 1, "qty": 1, "special_instructions": 4}]}`, wantField: "items[0].special_instructions"},
		{name: "date is number", body: `{"items": [], "delivery_date": 20300101}`, wantField: "delivery_date"},
		{name: "address is array", body: `{"items": [], "delivery_address": ["a"]}`, wantField: "delivery_address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := validator.NormalizeOrderRequest(decode(t, tt.body))
			assert.Contains(t, errs, tt.wantField)
		})
	}
}

func TestNormalizeOrderRequest_NilMap(t *testing.T) {
	_, errs := validator.NormalizeOrderRequest(nil)
	assert.Contains(t, errs, "items")
}

func validRequest() validator.OrderRequest {
	return validator.OrderRequest{
		Items: []validator.CartLine{
			{MenuItemID: 1, Quantity: 2},
			{MenuItemID: 5, Quantity: 1, SpecialInstructions: "less salt"},
		},
		DeliveryDate:    "2030-05-01",
		DeliveryTime:    "14:30:00",
		DeliveryAddress: "221B Baker Street",
	}
}

func TestValidateOrder(t *testing.T) {
	rules := validator.DefaultRules()

	tests := []struct {
		name       string
		mutate     func(r *validator.OrderRequest)
		wantFields []string
	}{
		{name: "valid: ok", mutate: func(r *validator.OrderRequest) {}},
		{
			name:       "empty cart: fail",
			mutate:     func(r *validator.OrderRequest) { r.Items = nil },
			wantFields: []string{"items"},
		},
		{
			name:       "zero menu item id: fail",
			mutate:     func(r *validator.OrderRequest) { r.Items[0].MenuItemID = 0 },
			wantFields: []string{"items[0].menu_item_id"},
		},
		{
			name:       "negative quantity: fail",
			mutate:     func(r *validator.OrderRequest) { r.Items[1].Quantity = -1 },
			wantFields: []string{"items[1].quantity"},
		},
		{
			name:       "quantity over limit: fail",
			mutate:     func(r *validator.OrderRequest) { r.Items[0].Quantity = rules.MaxQuantityPerLine + 1 },
			wantFields: []string{"items[0].quantity"},
		},
		{
			name:       "missing date: fail",
			mutate:     func(r *validator.OrderRequest) { r.DeliveryDate = "" },
			wantFields: []string{"delivery_date"},
		},
		{
			name:       "bad date: fail",
			mutate:     func(r *validator.OrderRequest) { r.DeliveryDate = "01/05/2030" },
			wantFields: []string{"delivery_date"},
		},
		{
			name:       "blank address: fail",
			mutate:     func(r *validator.OrderRequest) { r.DeliveryAddress = "   " },
			wantFields: []string{"delivery_address"},
		},
		{
			name:       "long notes: fail",
			mutate:     func(r *validator.OrderRequest) { r.Notes = strings.Repeat("x", rules.MaxNotesLength+1) },
			wantFields: []string{"notes"},
		},
		{
			name: "every rule at once: fail",
			mutate: func(r *validator.OrderRequest) {
				r.Items = []validator.CartLine{{}}
				r.DeliveryDate = ""
				r.DeliveryAddress = ""
			},
			wantFields: []string{"delivery_address", "delivery_date", "items[0].menu_item_id", "items[0].quantity"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			errs := validator.ValidateOrder(req, rules)
			if len(tt.wantFields) == 0 {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.wantFields, errs.Fields())
		})
	}
}

func TestFieldErrors_MergeKeepsFirst(t *testing.T) {
	a := validator.FieldErrors{"items[0].quantity": "Quantity must be a positive integer"}
	b := validator.FieldErrors{"items[0].quantity": "other", "delivery_date": "Delivery date is required"}

	merged := a.Merge(b)
	assert.Equal(t, "Quantity must be a positive integer", merged["items[0].quantity"])
	assert.Equal(t, "Delivery date is required", merged["delivery_date"])

	var empty validator.FieldErrors
	assert.Len(t, empty.Merge(b), 2)
}

// json.Unmarshalそのまま（float64）で渡されても同じ結果になる
func TestNormalizeOrderRequest_Float64Input(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"items": [{"id": 3, "qty": 2.0}, {"id": 4, "qty": 1.5}]}`), &raw))

	req, errs := validator.NormalizeOrderRequest(raw)
	require.Len(t, req.Items, 2)
	assert.Equal(t, validator.CartLine{MenuItemID: 3, Quantity: 2}, req.Items[0])
	assert.Contains(t, errs, "items[1].quantity")
	assert.NotContains(t, errs, "items[0].quantity")
}
