package billform

import (
	"slices"
	"strings"

	"github.com/codalotl/streamfill/internal/diag"
	"github.com/codalotl/streamfill/internal/partialjson"
)

var bracketReplacer = strings.NewReplacer("（", "(", "）", ")", "[", "(", "]", ")")

// Normalizer cleans the account name of successive snapshots of one answer. It is stateful: once a snapshot's account name exactly matches a known account, later snapshots
// keep their (normalized) account name even if it stops matching. Until then, unmatched names are blanked.
//
// Use one Normalizer per streamed answer.
type Normalizer struct {
	diag.Ctx

	Accounts   []string // known account names
	NoiseWords []string // removed from account names before matching

	matched bool
}

// NormalizeAccount rewrites obj's accountname in place, if it holds a non-empty string. Full-width and square brackets become ASCII parentheses and noise words are removed.
func (n *Normalizer) NormalizeAccount(obj *partialjson.Object) {
	v, ok := obj.Get(FieldAccount)
	if !ok {
		return
	}
	name, ok := v.Str()
	if !ok || name == "" {
		return
	}

	name = n.clean(name)
	if slices.Contains(n.Accounts, name) {
		n.matched = true
	}
	if !n.matched {
		n.Debug("account not in list; blanking", "account", name)
		name = ""
	}
	obj.Set(FieldAccount, partialjson.String(name))
}

// Matched reports whether any snapshot so far carried a known account name.
func (n *Normalizer) Matched() bool {
	return n.matched
}

func (n *Normalizer) clean(name string) string {
	name = bracketReplacer.Replace(name)
	for _, w := range n.NoiseWords {
		if w != "" {
			name = strings.ReplaceAll(name, w, "")
		}
	}
	return name
}
