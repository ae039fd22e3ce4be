package usecase

import "github.com/shopspring/decimal"

// Amount は金額。JSONでは小数2桁の数値で出す（"77.5"ではなく77.50）。
type Amount decimal.Decimal

func (a Amount) Decimal() decimal.Decimal { return decimal.Decimal(a) }

func (a Amount) String() string { return decimal.Decimal(a).StringFixed(2) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}
