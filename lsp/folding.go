// Copyright © 2024 The ELPS authors

package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/luthersystems/tdl/ast"
	"github.com/luthersystems/tdl/incr"
	"github.com/luthersystems/tdl/source"
	"github.com/luthersystems/tdl/workspace"
)

// textDocumentFoldingRange handles the textDocument/foldingRange request.
// It returns folding ranges for multi-line definitions and blocks and for
// runs of line comments.
func (s *Server) textDocumentFoldingRange(_ *glsp.Context, params *protocol.FoldingRangeParams) ([]protocol.FoldingRange, error) {
	doc := s.docs.Get(params.TextDocument.URI)
	if doc == nil {
		return nil, nil
	}
	m, ok := s.ws.Get(doc.File)
	if !ok {
		return nil, nil
	}

	var ranges []protocol.FoldingRange
	m.View(func(v *workspace.View) {
		if v.Tree != nil && v.Tree.Defs != nil {
			for _, d := range v.Tree.Defs.Defs {
				collectFoldingRanges(v.Buffer, d, &ranges)
			}
		}
		ranges = append(ranges, commentFoldingRanges(v.Buffer.Text())...)
	})
	return ranges, nil
}

// collectFoldingRanges emits a folding range for each definition and
// block below n that spans more than one line.
func collectFoldingRanges(b *source.Buffer, n incr.Node, ranges *[]protocol.FoldingRange) {
	incr.Walk(n, func(c incr.Node) bool {
		switch c.(type) {
		case ast.Def, *ast.Block:
		default:
			return true
		}
		sp := c.Span()
		start, end := b.Position(sp.Start).Line, b.Position(sp.End).Line
		if end > start {
			kind := string(protocol.FoldingRangeKindRegion)
			*ranges = append(*ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
		return true
	})
}

// commentFoldingRanges folds runs of two or more consecutive lines that
// hold only a line comment.
func commentFoldingRanges(content string) []protocol.FoldingRange {
	var ranges []protocol.FoldingRange
	lines := strings.Split(content, "\n")
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			kind := string(protocol.FoldingRangeKindComment)
			ranges = append(ranges, protocol.FoldingRange{
				StartLine: safeUint(start),
				EndLine:   safeUint(end),
				Kind:      &kind,
			})
		}
		start = -1
	}
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "//") {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(lines) - 1)
	return ranges
}
