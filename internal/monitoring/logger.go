package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// verbose gates Debugf. The overlap procedure traces every acquisition and
// motor step at debug level, which is far too chatty for normal operation.
var verbose bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables or disables debug-level tracing.
func SetVerbose(v bool) {
	verbose = v
}

// Debugf logs through Logf only when verbose tracing is enabled.
func Debugf(format string, v ...interface{}) {
	if verbose {
		Logf("debug: "+format, v...)
	}
}
