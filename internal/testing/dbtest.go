package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"builder-maps/pkg/database"
)

// DBTest provides a real DB connection for integration tests.
// It uses DATABASE_URL_TEST if set, otherwise DATABASE_URL. Tests are skipped if missing.
type DBTest struct {
	T  *testing.T
	DB *database.DB
}

func NewDBTest(t *testing.T) *DBTest {
	t.Helper()
	url := os.Getenv("DATABASE_URL_TEST")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("DATABASE_URL_TEST or DATABASE_URL not set; skipping integration tests")
	}
	db, err := database.New(url)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	d := &DBTest{T: t, DB: db}
	t.Cleanup(d.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return d
}

func (d *DBTest) Close() {
	_ = d.DB.Close()
}

// Truncate wipes the spot tables.
func (d *DBTest) Truncate() {
	d.T.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, table := range []string{"spot_audit_logs", "spots"} {
		if _, err := d.DB.Conn().ExecContext(ctx, "DELETE FROM "+table); err != nil {
			d.T.Fatalf("truncate %s: %v", table, err)
		}
	}
}
