package core

// Logger is the application-wide structured logger. Implementations may ship
// entries to an external error tracker in addition to stdout.
//
// Expected args: error | map[string]interface{} | any value carrying context.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
