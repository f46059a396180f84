// Package testing puts test binaries into test mode. Import it for side
// effects from package tests.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		setDefault("STOCKROOM_TEST_MODE", "1")
		setDefault("APP_ENV", "test")
		setDefault("LOG_LEVEL", "error")
	})
}

func setDefault(key, value string) {
	if os.Getenv(key) == "" {
		_ = os.Setenv(key, value)
	}
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
