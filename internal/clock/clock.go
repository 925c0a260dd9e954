// Package clock centralises access to the wall clock so that deadline and
// schedule arithmetic can be made deterministic in tests.
package clock

import "time"

// NowFunc returns the current time. Tests override it to freeze the clock.
var NowFunc = time.Now

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }
