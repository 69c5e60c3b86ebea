package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsSchemaError_UndefinedColumnCode(t *testing.T) {
	err := &pgconn.PgError{Code: "42703", Message: `column "retry_count" of relation "crawl_jobs" does not exist`}
	if !IsSchemaError(err) {
		t.Fatalf("expected 42703 to be a schema error")
	}
}

func TestIsSchemaError_WrappedPgError(t *testing.T) {
	err := fmt.Errorf("select retryable jobs: %w", &pgconn.PgError{Code: "42703"})
	if !IsSchemaError(err) {
		t.Fatalf("expected wrapped 42703 to be a schema error")
	}
}

func TestIsSchemaError_MessageFallback(t *testing.T) {
	err := errors.New(`ERROR: column retry_count does not exist (SQLSTATE 42703)`)
	if !IsSchemaError(err) {
		t.Fatalf("expected message mentioning retry_count to be a schema error")
	}
}

func TestIsSchemaError_OtherErrors(t *testing.T) {
	if IsSchemaError(nil) {
		t.Fatalf("nil is not a schema error")
	}
	if IsSchemaError(errors.New("connection refused")) {
		t.Fatalf("generic errors are not schema errors")
	}
	if IsSchemaError(&pgconn.PgError{Code: "23505"}) {
		t.Fatalf("unique violations are not schema errors")
	}
}
