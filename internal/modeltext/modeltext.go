// Package modeltext extracts the machine-readable payload from model output.
package modeltext

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractJSON returns the body of the first fenced code block in s (ex: "```json\n{...}\n```"), or s unchanged if it has no fenced code block. An unterminated fence,
// as seen mid-stream, runs to the end of s; a fence whose opening line is still being written has an empty body.
func ExtractJSON(s string) string {
	src := []byte(s)
	fcb := firstFence(src)
	if fcb == nil {
		return s
	}
	return fencedCodeContent(src, fcb)
}

// Fenced reports whether s contains a fenced code block.
func Fenced(s string) bool {
	return firstFence([]byte(s)) != nil
}

func firstFence(src []byte) *ast.FencedCodeBlock {
	root := goldmark.New().Parser().Parse(text.NewReader(src))
	if root == nil {
		return nil
	}

	var found *ast.FencedCodeBlock
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fcb, ok := n.(*ast.FencedCodeBlock); ok {
			found = fcb
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

func fencedCodeContent(src []byte, fcb *ast.FencedCodeBlock) string {
	lines := fcb.Lines()
	if lines == nil {
		return ""
	}
	var buf bytes.Buffer
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		if seg.Start < 0 || seg.Stop < seg.Start || seg.Stop > len(src) {
			continue
		}
		buf.Write(src[seg.Start:seg.Stop])
	}
	return buf.String()
}
