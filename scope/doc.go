// Copyright © 2024 The ELPS authors

// Package scope implements name resolution scopes for incrementally
// analysed modules.
//
// Scopes live in an Arena and refer to each other by ID, so a parent never
// owns its children and a scope can be unlinked without invalidating
// anything that still holds its ID. Parameterized definitions reach their
// enclosing scope through a Bridge managed by Bridges; the bridge is the
// only link between a definition's local scopes and the shared module
// scope, so a definition can be torn down or re-attached without touching
// its siblings.
package scope
