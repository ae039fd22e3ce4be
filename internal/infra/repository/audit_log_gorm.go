package repository

import (
	"context"

	"catering/internal/domain/model"
	repo "catering/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultAdminLogLimit = 50
	maxAdminLogLimit     = 200
)

type adminLogGormRepository struct {
	db *gorm.DB
}

func NewAdminLogGormRepository(db *gorm.DB) repo.AdminLogRepository {
	return &adminLogGormRepository{db: db}
}

func (r *adminLogGormRepository) Create(ctx context.Context, log model.AdminLog) error {
	return translate(r.db.WithContext(ctx).Create(&log).Error)
}

func (r *adminLogGormRepository) List(ctx context.Context, f repo.AdminLogFilter) ([]model.AdminLog, error) {
	var logs []model.AdminLog
	err := r.db.WithContext(ctx).
		Scopes(adminLogConditions(f), adminLogPage(f.Limit, f.Offset)).
		Order("id DESC").
		Find(&logs).Error
	if err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

func adminLogConditions(f repo.AdminLogFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.TableName != "" {
			q = q.Where("table_name = ?", f.TableName)
		}
		if f.RecordID != nil {
			q = q.Where("record_id = ?", *f.RecordID)
		}
		if f.AdminID != nil {
			q = q.Where("admin_id = ?", *f.AdminID)
		}
		if f.Action != "" {
			q = q.Where("action = ?", f.Action)
		}
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at <= ?", *f.To)
		}
		return q
	}
}

// 範囲外のlimitは既定値に丸める
func adminLogPage(limit, offset int) func(*gorm.DB) *gorm.DB {
	if limit <= 0 || limit > maxAdminLogLimit {
		limit = defaultAdminLogLimit
	}
	offset = max(offset, 0)
	return func(q *gorm.DB) *gorm.DB {
		return q.Limit(limit).Offset(offset)
	}
}
