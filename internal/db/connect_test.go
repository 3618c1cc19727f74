package db

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestOpenSQLiteCreatesSchema(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "t.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dbh.Close()

	for _, table := range []string{"users", "courses", "enrollments", "course_progress", "quizzes", "submissions", "certificates", "issuance_jobs"} {
		var n int
		if err := dbh.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}

	// schema is idempotent
	if err := EnsureSchema(ctx, dbh, DriverSQLite); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
}

func TestCertificatePairIsUnique(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "t.db")
	dbh, err := Open(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer dbh.Close()

	ins := `INSERT INTO certificates (id,user_id,course_id,issued_at,completed_at,pdf_key) VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := dbh.Exec(ins, "AAAAAAAAAAAAAAAA", "u1", "c1", 1, 1, "certificates/AAAAAAAAAAAAAAAA.pdf"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = dbh.Exec(ins, "BBBBBBBBBBBBBBBB", "u1", "c1", 2, 2, "certificates/BBBBBBBBBBBBBBBB.pdf")
	if !IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), true},
		{&pgconn.PgError{Code: "23503"}, false},
		{fmt.Errorf("constraint failed: UNIQUE constraint failed: certificates.user_id, certificates.course_id (2067)"), true},
		{fmt.Errorf("no such table: certificates"), false},
	}
	for _, c := range cases {
		if got := IsUniqueViolation(c.err); got != c.want {
			t.Errorf("IsUniqueViolation(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Driver("mysql"), ""); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
