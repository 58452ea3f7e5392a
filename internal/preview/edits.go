package preview

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// Op is an edit operation from old text to new text.
type Op int

const (
	OpInsert Op = iota + 1
	OpDelete
	OpReplace
)

func (op Op) String() string {
	switch op {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	}
	return "unknown"
}

// Edit is one contiguous change. Pos is the rune offset in the old text where Old starts (and where New is inserted).
type Edit struct {
	Op  Op
	Pos int
	Old string
	New string
}

// Edits returns the edits that turn oldText into newText, in order. Adjacent deletions and insertions are merged into one replace.
//
// Applying the edits to oldText from last to first yields newText.
func Edits(oldText, newText string) []Edit {
	if oldText == newText {
		return nil
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var edits []Edit
	pos := 0
	var cur *Edit
	flush := func() {
		if cur == nil {
			return
		}
		switch {
		case cur.Old != "" && cur.New != "":
			cur.Op = OpReplace
		case cur.Old != "":
			cur.Op = OpDelete
		default:
			cur.Op = OpInsert
		}
		edits = append(edits, *cur)
		cur = nil
	}

	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += len([]rune(d.Text))
		case diffmatchpatch.DiffDelete:
			if cur == nil {
				cur = &Edit{Pos: pos}
			}
			cur.Old += d.Text
			pos += len([]rune(d.Text))
		case diffmatchpatch.DiffInsert:
			if cur == nil {
				cur = &Edit{Pos: pos}
			}
			cur.New += d.Text
		}
	}
	flush()
	return edits
}

// ApplyEdits applies edits (as returned by Edits for oldText) and returns the new text.
func ApplyEdits(oldText string, edits []Edit) string {
	runes := []rune(oldText)
	for i := len(edits) - 1; i >= 0; i-- {
		e := edits[i]
		end := e.Pos + len([]rune(e.Old))
		if e.Pos < 0 || end > len(runes) {
			continue
		}
		next := make([]rune, 0, len(runes)-len([]rune(e.Old))+len([]rune(e.New)))
		next = append(next, runes[:e.Pos]...)
		next = append(next, []rune(e.New)...)
		next = append(next, runes[end:]...)
		runes = next
	}
	return string(runes)
}
