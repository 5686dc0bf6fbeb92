package repositories

import (
	"errors"

	"github.com/anonto42/nano-midea/socialgraph/internal/apperror"
	"gorm.io/gorm"
)

// translate maps gorm sentinels onto the taxonomy and leaves other errors untouched
func translate(err error, notFound, duplicate string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound) && notFound != "":
		return apperror.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey) && duplicate != "":
		return apperror.Conflict(duplicate)
	default:
		return err
	}
}
