// Package guard switches binaries into test mode when imported by a test, so
// that running main() returns before dialing Postgres or Redis.
package guard

import (
	"os"
	"sync"
)

const envTestMode = "BOOKS_TEST_MODE"

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv(envTestMode) == "" {
			_ = os.Setenv(envTestMode, "1")
		}
	})
}

// Enabled reports whether the guard is active.
func Enabled() bool {
	return os.Getenv(envTestMode) == "1"
}
