// Copyright © 2024 The ELPS authors

package incr

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// Resolution is the decision taken by a Recovery.
type Resolution int

const (
	// Resolved means the reparse succeeded and nothing else is needed.
	Resolved Resolution = iota
	// NeedsRebuild means the unit of work must be parsed from scratch.
	NeedsRebuild
)

func (r Resolution) String() string {
	if r == NeedsRebuild {
		return "needs-rebuild"
	}
	return "resolved"
}

// Recovery handles escalations that reach the top of a unit of work.
type Recovery struct {
	Bridges BridgeRemover
	Log     *logrus.Entry
}

// Handle inspects the error returned by Reparser.Reparse for root. Any
// escalation tears down every bridge below root and invalidates root, and
// the caller must rebuild. Caches of nodes the walk left alone are not
// touched; the rebuild replaces them.
func (rc *Recovery) Handle(root Node, err error) Resolution {
	if err == nil {
		return Resolved
	}
	kind := Abort
	var esc *Escalation
	if errors.As(err, &esc) {
		kind = esc.Kind
	}
	if rc.Log != nil {
		rc.Log.WithError(err).WithField("failure", kind.String()).Info("reparse failed, rebuilding")
	}
	if rc.Bridges != nil {
		Walk(root, func(n Node) bool {
			rc.Bridges.Remove(n)
			return true
		})
	}
	root.Cache().Invalidate()
	return NeedsRebuild
}
