package service

import (
	"database/sql"
	"errors"

	apperrors "github.com/eaata/helpdesk/pkg/util/errorutil"
)

// notFoundOr turns a missing row into a NotFound domain error and passes
// everything else through.
func notFoundOr(err error, resource string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

func requirePositiveID(id int64, field string) error {
	if id <= 0 {
		return apperrors.NewValidationError(field+" must be a positive integer", map[string]any{field: id})
	}
	return nil
}
