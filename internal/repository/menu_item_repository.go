package repository

import (
	"context"

	"catering/internal/domain/model"
)

// メニュー（カタログ）の読み取りだけを約束。管理はこのサービスの外。
type MenuItemRepository interface {
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)
	//見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error)
}
