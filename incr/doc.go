// Copyright © 2024 The ELPS authors

// Package incr is the incremental analysis engine shared by the tdl front
// end.
//
// It provides three things that let a tree of long-lived, cross-referencing
// nodes stay consistent under a stream of small edits:
//
//   - a memoization contract: every Node carries a Cache stamped with the
//     Timestamp of its last successful check, so a pass can decide in O(1)
//     whether a node must be checked again;
//   - a damage Region that maps a text Edit onto the smallest set of
//     subtrees that must be re-read, and a Reparser that walks the tree,
//     patches what it can and escalates what it cannot;
//   - a Recovery controller that turns an escalation reaching the top of a
//     module into a full rebuild of that module only.
//
// The package knows nothing about the language being analysed. Clients
// implement Node, Composite and Sequence for their syntax tree and supply a
// Grammar with entry points for the pieces that can be re-read in isolation.
package incr
