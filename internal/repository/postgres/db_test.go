package postgres

import (
	"context"
	"testing"

	"eventhub/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestCheckTransactional(t *testing.T) {
	tests := []struct {
		name  string
		mock  func(mock sqlmock.Sqlmock)
		errIs error
	}{
		{
			name: "primary read-write",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT pg_is_in_recovery\(\), current_setting\('transaction_read_only'\)`).
					WillReturnRows(sqlmock.NewRows([]string{"in_recovery", "read_only"}).AddRow(false, "off"))
			},
		},
		{
			name: "hot standby",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`pg_is_in_recovery`).
					WillReturnRows(sqlmock.NewRows([]string{"in_recovery", "read_only"}).AddRow(true, "on"))
			},
			errIs: domain.ErrTransactionsUnavailable,
		},
		{
			name: "read-only session",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`pg_is_in_recovery`).
					WillReturnRows(sqlmock.NewRows([]string{"in_recovery", "read_only"}).AddRow(false, "on"))
			},
			errIs: domain.ErrTransactionsUnavailable,
		},
		{
			name: "feature not supported",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`pg_is_in_recovery`).WillReturnError(&pq.Error{Code: "0A000"})
			},
			errIs: domain.ErrTransactionsUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = CheckTransactional(context.Background(), db)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
