package repository

import "context"

// トランザクション内で使う約束
type TxRepos interface {
	Orders() OrderRepository
	OrderItems() OrderItemRepository
	MenuItems() MenuItemRepository
	AdminLogs() AdminLogRepository
}

// UsecaseからTxの開始/commit/rollbackを隠す。
// fnがエラーを返す（またはpanicする）とロールバックされる。
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
