package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fastRetry = RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}

func TestRetryPolicy(t *testing.T) {
	tests := []struct {
		name         string
		policy       RetryPolicy
		errs         []error
		wantAttempts int
		wantErr      bool
	}{
		{
			name:         "retries busy until success",
			policy:       fastRetry,
			errs:         []error{errors.New("database is locked"), errors.New("SQLITE_BUSY"), nil},
			wantAttempts: 3,
		},
		{
			name:         "stops on other errors",
			policy:       fastRetry,
			errs:         []error{errors.New("no such table: views")},
			wantAttempts: 1,
			wantErr:      true,
		},
		{
			name:         "gives up after max attempts",
			policy:       RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond},
			errs:         []error{errors.New("database is busy"), errors.New("database is busy"), nil},
			wantAttempts: 2,
			wantErr:      true,
		},
		{
			name:         "zero policy uses defaults",
			policy:       RetryPolicy{},
			errs:         []error{errors.New("database is locked"), nil},
			wantAttempts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			err := tt.policy.run(context.Background(), func() error {
				err := tt.errs[attempts]
				attempts++
				return err
			})
			require.Equal(t, tt.wantAttempts, attempts)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := fastRetry.run(ctx, func() error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestTransactionWithRetry(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	attempts := 0
	err := db.TransactionWithRetry(ctx, fastRetry, func(tx *sql.Tx) error {
		attempts++
		if _, err := tx.ExecContext(ctx, `INSERT INTO views (id, class, name, origin, position, created_at, updated_at) VALUES ('plot', 'TimeSeries', '', '', 0, 'now', 'now')`); err != nil {
			return err
		}
		if attempts < 2 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	// The failed first attempt was rolled back, so exactly one row exists.
	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM views`).Scan(&count))
	require.Equal(t, 1, count)
}

func TestIsBusyError(t *testing.T) {
	require.False(t, isBusyError(nil))
	require.False(t, isBusyError(context.Canceled))
	require.False(t, isBusyError(errors.New("syntax error")))
	require.True(t, isBusyError(errors.New("database is locked (5) (SQLITE_BUSY)")))
}

func TestIsUniqueConstraintError(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	insert := `INSERT INTO views (id, class, name, origin, position, created_at, updated_at) VALUES ('plot', 'TimeSeries', '', '', 0, 'now', 'now')`
	_, err := db.ExecContext(ctx, insert)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert)
	require.Error(t, err)
	require.True(t, isUniqueConstraintError(err))
	require.False(t, isUniqueConstraintError(errors.New("boom")))
}
