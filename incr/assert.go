// Copyright © 2024 The ELPS authors

package incr

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var invariantLog = logrus.WithField("pkg", "incr")

// SetInvariantLogger redirects reports of violated engine invariants in
// builds without the incrdebug tag.
func SetInvariantLogger(l *logrus.Entry) {
	if l != nil {
		invariantLog = l
	}
}

// assertf checks an engine invariant. Valid input never violates one; a
// violation is a bug in the engine or in a Node implementation. Builds
// tagged incrdebug panic, other builds log at error level and continue.
func assertf(cond bool, format string, v ...interface{}) {
	if cond {
		return
	}
	msg := fmt.Sprintf(format, v...)
	if debugAssertions {
		panic("incr: invariant violated: " + msg)
	}
	invariantLog.WithField("invariant", msg).Error("engine invariant violated")
}
