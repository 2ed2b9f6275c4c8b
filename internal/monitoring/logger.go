// Package monitoring carries the package-level diagnostic logger the rest of
// the calibration core writes to.
package monitoring

import "log"

// Logf emits one diagnostic line. It defaults to log.Printf; the driver can
// swap it via SetLogger to route calibration progress elsewhere, and tests
// mute it the same way.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. nil installs a no-op.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
