// Copyright © 2024 The ELPS authors

package incr

import "fmt"

// OutcomeKind classifies the result of updating a node after an edit.
type OutcomeKind int

const (
	// Unchanged means the node was only relocated.
	Unchanged OutcomeKind = iota
	// PartiallyUpdated means part of the node was re-read in place.
	PartiallyUpdated
	// FullyRebuilt means some elements were discarded and parsed again.
	FullyRebuilt
	// Failed means the node could not absorb the damage.
	Failed
)

var outcomeNames = [...]string{
	Unchanged:        "unchanged",
	PartiallyUpdated: "partially-updated",
	FullyRebuilt:     "fully-rebuilt",
	Failed:           "failed",
}

func (k OutcomeKind) String() string {
	if int(k) < len(outcomeNames) {
		return outcomeNames[k]
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the result of a reparse step.
type Outcome struct {
	Kind OutcomeKind
	// Span is the updated node span for PartiallyUpdated and FullyRebuilt.
	Span Span
	// Nodes holds the freshly parsed nodes for FullyRebuilt.
	Nodes []Node
	// Reason explains Failed.
	Reason error
}

// FailureKind classifies an Escalation.
type FailureKind int

const (
	// PartialFailure means a node could not claim the damage and its
	// parent must try a coarser update.
	PartialFailure FailureKind = iota
	// StructuralFailure means re-reading the damaged text failed.
	StructuralFailure
	// Abort means no recognizable structure absorbs the damage.
	Abort
)

var failureNames = [...]string{
	PartialFailure:    "partial",
	StructuralFailure: "structural",
	Abort:             "abort",
}

func (k FailureKind) String() string {
	if int(k) < len(failureNames) {
		return failureNames[k]
	}
	return fmt.Sprintf("failure(%d)", int(k))
}

// Escalation is the error returned when a node gives up on an update. It
// wraps the escalation of the child that caused it, if any.
type Escalation struct {
	Kind FailureKind
	Node Node
	Err  error
}

func (e *Escalation) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("%s failure: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failure at %v: %v", e.Kind, e.Node.Span(), e.Err)
}

func (e *Escalation) Unwrap() error {
	return e.Err
}
