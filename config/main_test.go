package config

import (
	"fmt"
	"os"
	"testing"
)

// TestMain refuses to run against anything but the test environment.
// An unset GO_ENV is treated as test.
func TestMain(m *testing.M) {
	switch env := os.Getenv("GO_ENV"); env {
	case "":
		if err := os.Setenv("GO_ENV", "test"); err != nil {
			fmt.Fprintf(os.Stderr, "failed to set GO_ENV=test: %v\n", err)
			os.Exit(1)
		}
	case "test":
	default:
		fmt.Fprintf(os.Stderr, "SAFETY CHECK FAILED: config tests must run with GO_ENV=test, got %q\n", env)
		os.Exit(1)
	}

	os.Exit(m.Run())
}
