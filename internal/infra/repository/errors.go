package repository

import (
	"errors"

	repo "catering/internal/repository"

	"gorm.io/gorm"
)

// gormのエラーをrepositoryのエラーにそろえる
// （ErrDuplicatedKeyはgorm.ConfigのTranslateErrorが前提）
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repo.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(repo.ErrDuplicate, err)
	default:
		return err
	}
}
