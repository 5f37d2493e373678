package postgres

import (
	"errors"

	"eventhub/internal/domain"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeReadOnlyTransaction  = "25006"
	codeFeatureNotSupported  = "0A000"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// Constraint names from migrations/0001_init.up.sql.
const rsvpUserForeignKey = "event_rsvps_user_id_fkey"

func pqCode(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return string(perr.Code)
	}
	return ""
}

// pqConstraint returns the constraint a Postgres error names, if any.
func pqConstraint(err error) string {
	var perr *pq.Error
	if errors.As(err, &perr) {
		return perr.Constraint
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pqCode(err) == codeUniqueViolation
}

// mapError turns transaction-level Postgres failures into domain errors. Anything
// else is returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch pqCode(err) {
	case codeSerializationFailure, codeDeadlockDetected:
		return errors.Join(domain.ErrTxAborted, err)
	case codeReadOnlyTransaction, codeFeatureNotSupported:
		return errors.Join(domain.ErrTransactionsUnavailable, err)
	}
	return err
}
