package revokedtokens

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	qAdd    = `(?s)^\s*INSERT\s+INTO\s+revoked_tokens\s*\(revoked_token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(revoked_token\)\s*DO\s+NOTHING\s*$`
	qExists = `(?s)^\s*SELECT\s+EXISTS\s*\(\s*SELECT\s+1\s+FROM\s+revoked_tokens\s+WHERE\s+revoked_token\s*=\s*\$1\s+AND\s+expires_at\s*>\s*NOW\(\)\s*\)\s*$`
	qPrune  = `(?s)^\s*DELETE\s+FROM\s+revoked_tokens\s+WHERE\s+expires_at\s*<=\s*NOW\(\)\s*$`
)

func TestAdd_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	expires := time.Now().Add(time.Hour)
	mock.ExpectExec(qAdd).
		WithArgs("tok", expires).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Add(context.Background(), "tok", expires); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdd_DuplicateIsNoop(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qAdd).
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Add(context.Background(), "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("duplicate insert must not fail: %v", err)
	}
}

func TestAdd_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qAdd).
		WithArgs("tok", sqlmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	err := repo.Add(context.Background(), "tok", time.Now())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestExists(t *testing.T) {
	tests := []struct {
		name string
		row  bool
	}{
		{name: "revoked", row: true},
		{name: "not revoked", row: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(qExists).
				WithArgs("tok").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.row))

			got, err := repo.Exists(context.Background(), "tok")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.row {
				t.Fatalf("got %v want %v", got, tt.row)
			}
		})
	}
}

func TestExists_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qExists).
		WithArgs("tok").
		WillReturnError(errors.New("db err"))

	_, err := repo.Exists(context.Background(), "tok")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestPruneExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(qPrune).
		WillReturnResult(sqlmock.NewResult(0, 5))

	n, err := repo.PruneExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("want 5, got %d", n)
	}
}
