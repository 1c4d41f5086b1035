package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateWriteError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, translateWriteError(nil))
	})

	t.Run("postgres unique violation on national id", func(t *testing.T) {
		pgErr := &pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_shareholders_pool_national_id",
			Detail:         "Key (pool_code, national_id)=(default, 852345678V) already exists.",
		}
		err := translateWriteError(fmt.Errorf("insert: %w", pgErr))

		me, ok := equity.AsMutationError(err)
		require.True(t, ok)
		assert.Equal(t, equity.KindDuplicateConstraint, me.Kind)
		assert.Equal(t, []string{equity.FieldNationalID}, me.Fields.Fields())
		assert.True(t, errors.Is(err, equity.ErrDuplicateConstraint))

		var unwrapped *pgconn.PgError
		assert.True(t, errors.As(err, &unwrapped), "cause stays reachable")
	})

	t.Run("postgres unique violation on contact", func(t *testing.T) {
		err := translateWriteError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_shareholders_pool_contact"})
		me, ok := equity.AsMutationError(err)
		require.True(t, ok)
		assert.Equal(t, []string{equity.FieldContact}, me.Fields.Fields())
	})

	t.Run("other postgres errors pass through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23514", ConstraintName: "chk_shareholders_invested_amount_positive"}
		err := translateWriteError(pgErr)
		_, ok := equity.AsMutationError(err)
		assert.False(t, ok)
		assert.Same(t, pgErr, err)
	})

	t.Run("sqlite unique constraint", func(t *testing.T) {
		sqliteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
		_, ok := uniqueViolation(sqliteErr)
		assert.True(t, ok)
	})

	t.Run("gorm translated duplicate key", func(t *testing.T) {
		err := translateWriteError(fmt.Errorf("%w: national_id", gorm.ErrDuplicatedKey))
		me, ok := equity.AsMutationError(err)
		require.True(t, ok)
		assert.True(t, me.Fields.Has(equity.FieldNationalID))
	})

	t.Run("unrelated errors pass through", func(t *testing.T) {
		err := errors.New("connection reset")
		assert.Same(t, err, translateWriteError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.True(t, IsUniqueViolation(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23514"}))
	assert.False(t, IsUniqueViolation(errors.New("connection reset")))
}
