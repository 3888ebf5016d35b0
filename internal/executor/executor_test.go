package executor

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

func TestExecuteMaterializesRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT id, name FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "John Doe").
			AddRow(int64(2), "Jane Smith"))

	rows, err := NewSQLExecutor(db).Execute(context.Background(), "SELECT id, name FROM customers")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0]["id"] != int64(1) {
		t.Fatalf("rows[0][id] = %v", rows[0]["id"])
	}
	if rows[1]["name"] != "Jane Smith" {
		t.Fatalf("rows[1][name] = %v", rows[1]["name"])
	}
}

func TestExecuteNormalizesDriverTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	id := uuid.MustParse("0f1e2d3c-4b5a-6978-8796-a5b4c3d2e1f0")
	created := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT .+ FROM customers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "blob", "created_at"}).
			AddRow(id, []byte("raw-bytes"), created))

	rows, err := NewSQLExecutor(db).Execute(context.Background(), "SELECT id, blob, created_at FROM customers")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if rows[0]["id"] != id.String() {
		t.Fatalf("id = %v, want %q", rows[0]["id"], id.String())
	}
	if rows[0]["blob"] != "raw-bytes" {
		t.Fatalf("blob = %v", rows[0]["blob"])
	}
	if rows[0]["created_at"] != "2024-03-01T12:30:00Z" {
		t.Fatalf("created_at = %v", rows[0]["created_at"])
	}
}

func TestExecutePropagatesDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT \\* FROM nonexistent_table").
		WillReturnError(errors.New(`relation "nonexistent_table" does not exist`))

	_, err = NewSQLExecutor(db).Execute(context.Background(), "SELECT * FROM nonexistent_table")
	if err == nil {
		t.Fatal("expected execution error")
	}
	if got := err.Error(); !strings.Contains(got, "nonexistent_table") {
		t.Fatalf("error = %q, want cause preserved", got)
	}
}

func TestNormalizeValuePassesNativeTypesThrough(t *testing.T) {
	for _, value := range []any{nil, true, "text", int64(7), 3.14} {
		if got := NormalizeValue(value); got != value {
			t.Fatalf("NormalizeValue(%v) = %v", value, got)
		}
	}
}

func TestNormalizeValueStringifiesUnknownTypes(t *testing.T) {
	type odd struct{ A int }
	got := NormalizeValue(odd{A: 1})
	if _, ok := got.(string); !ok {
		t.Fatalf("NormalizeValue() = %T, want string", got)
	}
}

func TestRegisterStringifierFallbackPlaceholder(t *testing.T) {
	type broken struct{ B int }
	RegisterStringifier(reflect.TypeOf(broken{}), func(any) (string, bool) {
		return "", false
	})
	if got := NormalizeValue(broken{B: 2}); got != Placeholder {
		t.Fatalf("NormalizeValue() = %v, want placeholder", got)
	}
}
