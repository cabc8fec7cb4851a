package logging

import (
	"fmt"
	"time"
)

// now is replaced in tests.
var now = time.Now

// DebugStart logs "Start <operation>" and returns a function that logs the end
// status (ok or error) together with the elapsed time.
func DebugStart(logger *Logger, operation string, format string, args ...interface{}) func(error) {
	if logger == nil {
		return func(error) {}
	}

	if format != "" {
		logger.Debug("Start %s: %s", operation, fmt.Sprintf(format, args...))
	} else {
		logger.Debug("Start %s", operation)
	}

	started := now()
	return func(err error) {
		elapsed := now().Sub(started)
		if err != nil {
			logger.Debug("End %s (error=%v, duration=%s)", operation, err, elapsed)
			return
		}
		logger.Debug("End %s (ok, duration=%s)", operation, elapsed)
	}
}
