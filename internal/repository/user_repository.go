package repository

import (
	"context"

	"catering/internal/domain/model"
)

// ユーザーの読み取り（token_versionの確認用）
type UserRepository interface {
	// IDからユーザーを1件取得する。なければErrNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
