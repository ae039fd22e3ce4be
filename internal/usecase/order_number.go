package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberGenerator は注文番号を発行する。一意性はDBのunique indexで担保し、衝突したら作り直す。
type OrderNumberGenerator interface {
	Generate(now time.Time) (string, error)
}

type randomOrderNumber struct{}

// ORD-<unix ms>-<16進6桁>
func NewOrderNumberGenerator() OrderNumberGenerator {
	return randomOrderNumber{}
}

func (randomOrderNumber) Generate(now time.Time) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("order number entropy: %w", err)
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:6]
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), strings.ToUpper(suffix)), nil
}
