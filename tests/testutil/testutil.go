package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/blousecraft/blousecraft-api/config"
	"gorm.io/gorm"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against a real database.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && url != ":memory:" && !strings.Contains(url, "test") {
		t.Fatalf("SAFETY CHECK FAILED: DATABASE_URL %s does not look like a test database", maskDatabaseURL(url))
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the duration of t.
// Use this in suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// UseDB installs db as the process-wide connection and restores the
// previous one when t finishes.
func UseDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	original := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() { config.SetDB(original) })
}

// maskDatabaseURL hides credentials so the URL is safe to print.
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:20] + "..."
	}
	return url
}
