package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const pgUniqueViolation = "23505"

// translateWriteError converts unique index violations into a
// DuplicateConstraint MutationError naming the offending field.
// Other errors are returned unchanged.
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	detail, ok := uniqueViolation(err)
	if !ok {
		return err
	}

	fields := equity.ErrorMap{}
	lower := strings.ToLower(detail)
	if strings.Contains(lower, "national_id") {
		fields.Add(equity.FieldNationalID, equity.DuplicateMessage)
	}
	if strings.Contains(lower, "contact") {
		fields.Add(equity.FieldContact, equity.DuplicateMessage)
	}
	return equity.NewDuplicateConstraintError(fields, err)
}

// IsUniqueViolation reports whether err is a unique index violation on either
// supported database
func IsUniqueViolation(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

// uniqueViolation reports whether err is a unique constraint failure and
// returns the text that identifies the constraint.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName + " " + pgErr.Detail, true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		// "UNIQUE constraint failed: shareholders.pool_code, shareholders.national_id"
		return sqliteErr.Error(), true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return err.Error(), true
	}

	return "", false
}
