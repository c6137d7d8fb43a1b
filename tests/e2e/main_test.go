package e2e

import (
	"os"
	"testing"

	"github.com/pulse-im/pulse/tests/testutil"
)

func TestMain(m *testing.M) {
	os.Exit(testutil.Run(m))
}
