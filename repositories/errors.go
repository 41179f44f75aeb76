package repositories

import (
	"errors"

	"speed-api/models"

	"gorm.io/gorm"
)

// translate maps gorm errors onto the domain error types.
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrorNotFound{Resource: resource}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return models.ErrorConflict{Message: resource + " already exists"}
	}
	return models.NewStorageError(err)
}
