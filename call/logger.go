package call

import "go.uber.org/zap"

var logger = zap.NewNop()

// SetLogger sets the logger for the call package.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// Logger returns the current logger for the call package.
func Logger() *zap.Logger {
	return logger
}
