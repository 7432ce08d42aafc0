package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	first := []byte("CREATE TABLE a (id INT);")
	second := []byte("CREATE TABLE b (id INT);")
	fsys := fstest.MapFS{
		"m/001_a.sql":  {Data: first},
		"m/002_b.sql":  {Data: second},
		"m/README.txt": {Data: []byte("ignored")},
	}
	sum := func(b []byte) string { return fmt.Sprintf("%x", sha256.Sum256(b)) }

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		errIs   error
		wantErr bool
	}{
		{
			name: "applies pending and skips applied",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT checksum FROM schema_migrations WHERE version = \$1`).
					WithArgs("001_a.sql").
					WillReturnRows(sqlmock.NewRows([]string{"checksum"}).AddRow(sum(first)))
				mock.ExpectQuery(`SELECT checksum FROM schema_migrations WHERE version = \$1`).
					WithArgs("002_b.sql").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectBegin()
				mock.ExpectExec(`CREATE TABLE b`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO schema_migrations`).
					WithArgs("002_b.sql", sum(second)).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
		},
		{
			name: "checksum mismatch",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT checksum FROM schema_migrations`).
					WithArgs("001_a.sql").
					WillReturnRows(sqlmock.NewRows([]string{"checksum"}).AddRow("deadbeef"))
			},
			wantErr: true,
			errIs:   ErrChecksumMismatch,
		},
		{
			name: "failed migration rolls back",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(`SELECT checksum FROM schema_migrations`).
					WithArgs("001_a.sql").
					WillReturnError(sql.ErrNoRows)
				mock.ExpectBegin()
				mock.ExpectExec(`CREATE TABLE a`).WillReturnError(fmt.Errorf("syntax error"))
				mock.ExpectRollback()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = runMigrations(ctx, db, logger, fsys, "m")
			if tt.wantErr {
				require.Error(t, err)
				if tt.errIs != nil {
					require.ErrorIs(t, err, tt.errIs)
				}
			} else {
				require.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(migrationsFS, "migrations")
	require.NoError(t, err)
	require.Contains(t, files, "001_init.sql")
}
