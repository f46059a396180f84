// Package guard switches the process into test mode when imported, for test
// binaries that build the runtime (integration tests, CLI tests).
package guard

import (
	"os"

	"github.com/stockroom/stockroom/internal/app"
)

func init() {
	if os.Getenv("STOCKROOM_TEST_MODE") == "" {
		_ = os.Setenv("STOCKROOM_TEST_MODE", "1")
	}
	if os.Getenv("LOG_LEVEL") == "" {
		_ = os.Setenv("LOG_LEVEL", "error")
	}
	app.RefreshTestMode()
}
