package transcoder

import "go.uber.org/zap"

// nopLogger is what every constructor falls back to when the caller
// passes a nil *zap.Logger: library code must stay silent by default,
// never reach for a global logger, and never panic on a missing one.
func nopLogger(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
