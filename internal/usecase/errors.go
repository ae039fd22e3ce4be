package usecase

import (
	"errors"
	"fmt"

	"catering/internal/validator"
)

// 認証・入力形式など、そのままHTTPステータスにしたいエラー
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// ValidationError はフィールド単位の入力エラーをまとめたもの。
type ValidationError struct {
	Fields validator.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d field(s)", len(e.Fields))
}

// PersistenceError はDB由来の失敗。Errの中身はクライアントへは出さない（devのみ）。
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// 読んでから更新するまでの間に別の更新が入った
var ErrConflict = errors.New("order was modified concurrently")
