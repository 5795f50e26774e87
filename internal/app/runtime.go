package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv switches binaries into a no-op mode so packages can be
// compiled and imported by tests without dialing Postgres or Redis.
const TestModeEnv = "BACKOFFICE_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

func detectTestMode() {
	testModeFlag.Store(os.Getenv(TestModeEnv) == "1")
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}
