package migration

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// setupPostgresTestDB creates a test PostgreSQL database connection
// Set POSTGRES_TEST_URL environment variable to run this test
func setupPostgresTestDB(t *testing.T) (*sql.DB, func()) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open postgres database: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Fatalf("failed to ping postgres database: %v", err)
	}

	cleanup := func() {
		db.Exec("DROP TABLE IF EXISTS schema_version")
		db.Exec("DROP TABLE IF EXISTS test_habits")
		db.Close()
	}
	return db, cleanup
}

// TestPostgresApplyMigrations verifies version bookkeeping with $1 placeholders
func TestPostgresApplyMigrations(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()

	runner := NewRunner(db, setupTestMigrations(t, map[string]string{
		"001_init.sql": "CREATE TABLE test_habits (id TEXT PRIMARY KEY);",
	}), DialectPostgres)

	count, err := runner.ApplyMigrations(nil)
	if err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}

	if err := runner.SetVersion(1); err != nil {
		t.Fatalf("SetVersion failed: %v", err)
	}
	version, err := runner.GetCurrentVersion()
	if err != nil || version != 1 {
		t.Errorf("GetCurrentVersion = %d, %v", version, err)
	}
}

// TestPostgresEmbeddedSchema applies the shipped postgres migrations
func TestPostgresEmbeddedSchema(t *testing.T) {
	db, cleanup := setupPostgresTestDB(t)
	defer cleanup()
	defer db.Exec("DROP TABLE IF EXISTS comments, post_likes, posts, completion_events, habits CASCADE")

	runner := NewRunner(db, embeddedSet(t, "postgres"), DialectPostgres)
	if _, err := runner.ApplyMigrations(nil); err != nil {
		t.Fatalf("ApplyMigrations failed: %v", err)
	}
	if err := runner.ValidateVersion(); err != nil {
		t.Errorf("ValidateVersion failed: %v", err)
	}

	for _, table := range schemaTables {
		var n int
		err := db.QueryRow("SELECT COUNT(*) FROM information_schema.tables WHERE table_name = $1", table).Scan(&n)
		if err != nil || n == 0 {
			t.Errorf("%s table was not created", table)
		}
	}
}
