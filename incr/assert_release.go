// Copyright © 2024 The ELPS authors

//go:build !incrdebug

package incr

const debugAssertions = false
