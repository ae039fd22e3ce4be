package model

import "time"

// 注文ステータス更新など。
type AuditAction string

const (
	//注文ステータスを更新した操作。
	AuditActionUpdateOrderStatus AuditAction = "UPDATE_ORDER_STATUS"
	//支払いステータスを更新した操作。
	AuditActionUpdatePaymentStatus AuditAction = "UPDATE_PAYMENT_STATUS"
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionUpdateOrderStatus, AuditActionUpdatePaymentStatus:
		return true
	default:
		return false
	}
}

// 管理者操作ログ。追記のみ。
// 「誰が」「どのテーブルの」「どの行を」「どう変えたか」を残す。
type AdminLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID。
	AdminID int64 `gorm:"not null;index" json:"admin_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	//対象テーブル（orders）。
	TableName string `gorm:"column:table_name;type:varchar(50);not null;index" json:"table_name"`

	RecordID int64 `gorm:"not null;index" json:"record_id"`

	//JSON文字列で保存する。
	OldValue string `gorm:"type:text" json:"old_value"`
	NewValue string `gorm:"type:text" json:"new_value"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

// 監査対象のテーブル名
const AuditTableOrders = "orders"
