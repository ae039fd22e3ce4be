package repository

import (
	"context"
	"time"

	"catering/internal/domain/model"
)

// AdminLogFilter は監査ログの絞り込み。ゼロ値の項目は条件にしない。
type AdminLogFilter struct {
	TableName string
	RecordID  *int64
	AdminID   *int64
	Action    model.AuditAction
	// [From, To] の範囲（created_at）
	From *time.Time
	To   *time.Time

	Limit  int
	Offset int
}

// 監査ログは追記のみ。更新・削除はしない。
type AdminLogRepository interface {
	Create(ctx context.Context, log model.AdminLog) error
	//新しい順
	List(ctx context.Context, filter AdminLogFilter) ([]model.AdminLog, error)
}
