package service

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	appErrors "github.com/noah-isme/campus-portal-api/pkg/errors"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// storeError maps a repository failure onto the API taxonomy: missing rows become NotFound with
// notFoundMsg, constraint violations become Conflict, anything else is an internal error with
// failMsg.
func storeError(err error, notFoundMsg, failMsg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFoundMsg)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		details := map[string]string{"constraint": pqErr.Constraint}
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return appErrors.WithDetails(appErrors.ErrConflict, "record already exists", details)
		case pqForeignKeyViolation:
			return appErrors.WithDetails(appErrors.ErrConflict, "record is still referenced by other records", details)
		}
	}
	return appErrors.Internal(err, failMsg)
}
