package recorder

import (
	"testing"

	"github.com/ablab/experimentutils"
)

func TestNopLoggerIsSilent(t *testing.T) {
	// The last-resort logger must satisfy the interface and swallow
	// calls without panicking.
	var logger experimentutils.Logger = nopLogger{}

	logger.Infow("message", "key", "value")
	logger.Warnw("message")
	logger.Errorw("message", "error", nil)
}
