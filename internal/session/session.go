// Package session turns a model's streamed answer into a live bill preview. A Session owns one span document and is its only writer: each snapshot of the answer is decoded
// leniently, cleaned, diffed against the previous snapshot, and the changed fields are written into their preview groups.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/codalotl/streamfill/internal/billform"
	"github.com/codalotl/streamfill/internal/diag"
	"github.com/codalotl/streamfill/internal/fielddiff"
	"github.com/codalotl/streamfill/internal/llmstream"
	"github.com/codalotl/streamfill/internal/modeltext"
	"github.com/codalotl/streamfill/internal/partialjson"
	"github.com/codalotl/streamfill/internal/spandoc"
)

var (
	ErrClosed       = errors.New("session: closed")
	ErrNotObject    = errors.New("session: answer is not a JSON object")
	ErrStreamEnded  = errors.New("session: stream ended without a result")
	ErrUnknownField = errors.New("session: unknown field")
)

// Options configure a Session.
type Options struct {
	Document *spandoc.Document // required

	// Decoder parses snapshots. Its Strict flag is ignored: snapshots are always decoded leniently.
	Decoder partialjson.Decoder

	Groups     map[string][]spandoc.Element // nil means billform.Groups()
	Normalizer *billform.Normalizer         // nil means account names are left as is
	Logger     *slog.Logger
	Now        func() time.Time // nil means time.Now
}

// Update describes the document after one snapshot.
type Update struct {
	Value     *partialjson.Object // the cleaned, decoded snapshot
	Changed   []string            // fields written to the document, in the order they appear in the answer
	Rendering spandoc.Rendering

	// DecodeErr is the lenient decoder's error, if any. It is informational: whatever was decoded has still been applied.
	DecodeErr *partialjson.Error

	Final bool                 // set on the update produced by Finish (via Run)
	Usage llmstream.TokenUsage // set when Final
}

// Session is safe for concurrent use, though snapshots must be applied in stream order to be meaningful.
type Session struct {
	diag.Ctx

	mu         sync.Mutex
	doc        *spandoc.Document
	decoder    partialjson.Decoder
	groups     map[string][]spandoc.Element
	normalizer *billform.Normalizer
	now        func() time.Time

	last      *partialjson.Object
	closed    bool
	closeOnce sync.Once
}

func New(opts Options) *Session {
	s := &Session{
		Ctx:        diag.NewCtx(opts.Logger),
		doc:        opts.Document,
		decoder:    opts.Decoder,
		groups:     opts.Groups,
		normalizer: opts.Normalizer,
		now:        opts.Now,
	}
	s.decoder.Strict = false
	if s.groups == nil {
		s.groups = billform.Groups()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Apply decodes snapshot (the model's cumulative output so far) and writes every field that changed since the last applied snapshot into the document. A snapshot
// that is not (yet) an object, or that decodes to the same value as the last one, changes nothing.
//
// Document errors are logged and skipped; Apply only fails with ErrClosed.
func (s *Session) Apply(snapshot string) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Update{}, ErrClosed
	}

	out := s.decoder.Parse(modeltext.ExtractJSON(snapshot))
	obj, ok := out.Value.Object()
	if !ok {
		return Update{Value: s.last, Rendering: s.doc.Render(), DecodeErr: out.Err}, nil
	}
	if s.normalizer != nil {
		s.normalizer.NormalizeAccount(obj)
	}

	u := s.apply(obj)
	u.DecodeErr = out.Err
	return u, nil
}

// Finish decodes the complete answer, cleans and repairs it (see billform.Finalize), and writes the result into the document. It returns the final bill.
//
// A final answer that fails to decode strictly, or that isn't an object, is an error; the document is left as the last snapshot made it.
func (s *Session) Finish(final string, now time.Time) (*partialjson.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	v, err := partialjson.DecodeComplete(modeltext.ExtractJSON(final))
	if err != nil {
		return nil, s.LogWrappedErr("session.finish", err)
	}
	obj, ok := v.Object()
	if !ok {
		return nil, s.LogWrappedErr("session.finish", ErrNotObject, "kind", v.Kind())
	}
	if s.normalizer != nil {
		s.normalizer.NormalizeAccount(obj)
	}
	if repaired := billform.Finalize(obj, now); len(repaired) > 0 {
		s.Log("session.finalized", "repaired", repaired)
	}

	s.apply(obj)
	return obj, nil
}

// apply diffs obj against the last value and writes the changes. s.mu must be held.
func (s *Session) apply(obj *partialjson.Object) Update {
	if s.last != nil && partialjson.Equal(partialjson.ObjectValue(s.last), partialjson.ObjectValue(obj)) {
		return Update{Value: obj, Rendering: s.doc.Render()}
	}
	diff := fielddiff.Diff(s.last, obj)

	s.ensureGroup(billform.GroupWelcome)

	var changed, skipped []string
	for _, m := range diff.Members() {
		if _, known := s.groups[m.Key]; !known {
			continue
		}
		if !s.ensureGroup(m.Key) {
			skipped = append(skipped, m.Key)
			continue
		}
		if err := s.doc.Modify(m.Key, billform.FormatValue(m.Value)); err != nil {
			s.Warn("session: modify skipped", "field", m.Key, "err", err)
			skipped = append(skipped, m.Key)
			continue
		}
		changed = append(changed, m.Key)
	}

	// Skipped fields keep their previous value so the next snapshot retries them.
	applied := obj
	if len(skipped) > 0 {
		applied = obj.Clone()
		for _, key := range skipped {
			if prev, ok := s.last.Get(key); ok {
				applied.Set(key, prev)
			} else {
				applied.Delete(key)
			}
		}
	}
	s.last = applied

	return Update{Value: obj, Changed: changed, Rendering: s.doc.Render()}
}

// ensureGroup adds the group for key if it isn't in the document yet. It reports whether the group is present afterwards; keys without a group definition report false.
func (s *Session) ensureGroup(key string) bool {
	if s.doc.HasGroup(key) {
		return true
	}
	elems, ok := s.groups[key]
	if !ok {
		return false
	}
	if err := s.doc.AddGroup(key, elems); err != nil {
		s.Warn("session: add group skipped", "group", key, "err", err)
		return false
	}
	return true
}

// Edit sets field to text as a manual correction, independent of the stream. Setting the type rearranges the bill: expense and income bills carry a category and no
// destination account, while transfers and repayments carry a destination account and no category.
func (s *Session) Edit(field, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if _, ok := s.groups[field]; !ok || field == billform.GroupWelcome {
		return s.LogWrappedErr("session.edit", ErrUnknownField, "field", field)
	}

	s.ensureGroup(billform.GroupWelcome)
	if !s.ensureGroup(field) {
		return s.LogNewErr("session.edit: group unavailable", "field", field)
	}
	if err := s.doc.Modify(field, text); err != nil {
		return s.LogWrappedErr("session.edit", err, "field", field)
	}
	if s.last == nil {
		s.last = partialjson.NewObject()
	}
	s.last.Set(field, partialjson.String(text))

	if field != billform.FieldType {
		return nil
	}
	switch text {
	case billform.TypeExpense, billform.TypeIncome:
		s.removeGroup(billform.FieldAccountTo)
		s.ensureGroup(billform.FieldCategory)
	case billform.TypeTransfer, billform.TypeRepayment:
		s.removeGroup(billform.FieldCategory)
		s.ensureGroup(billform.FieldAccountTo)
	}
	return nil
}

func (s *Session) removeGroup(key string) {
	if !s.doc.HasGroup(key) {
		return
	}
	if err := s.doc.Remove(key); err != nil {
		s.Warn("session: remove skipped", "group", key, "err", err)
	}
}

// fieldOrder is the order of Fields' members.
var fieldOrder = []string{
	billform.FieldType, billform.FieldMoney, billform.FieldTime, billform.FieldRemark, billform.FieldCategory, billform.FieldAccount, billform.FieldAccountTo,
}

// Fields returns the bill as currently shown: one member per field whose group is in the document, holding the field's text. A money text that parses as a number is
// returned as a number.
func (s *Session) Fields() *partialjson.Object {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := partialjson.NewObject()
	if s.closed {
		return out
	}
	for _, field := range fieldOrder {
		if !s.doc.HasGroup(field) {
			continue
		}
		text := s.doc.TextOf(field)
		if field == billform.FieldMoney {
			if n, err := strconv.ParseFloat(text, 64); err == nil {
				out.Set(field, partialjson.Number(n))
				continue
			}
		}
		out.Set(field, partialjson.String(text))
	}
	return out
}

// Rendering returns the document's current rendering.
func (s *Session) Rendering() spandoc.Rendering {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Render()
}

// Run drains events, applying each snapshot in order and calling onUpdate (if non-nil) after every snapshot that changed the document, and once more with the final
// update. It returns the final bill when the stream completes.
//
// If ctx is cancelled, the stream reports an error, or the final answer can't be finished, Run closes the session and returns the error.
func (s *Session) Run(ctx context.Context, events <-chan llmstream.Event, onUpdate func(Update)) (*partialjson.Object, error) {
	notify := func(u Update) {
		if onUpdate != nil {
			onUpdate(u)
		}
	}

	for {
		var ev llmstream.Event
		var ok bool
		select {
		case <-ctx.Done():
			s.Close()
			return nil, ctx.Err()
		case ev, ok = <-events:
		}
		if !ok {
			s.Close()
			return nil, s.LogWrappedErr("session.run", ErrStreamEnded)
		}

		switch ev.Type {
		case llmstream.EventTypeTextDelta:
			u, err := s.Apply(ev.Text)
			if err != nil {
				return nil, err
			}
			if len(u.Changed) > 0 {
				notify(u)
			}
		case llmstream.EventTypeCompletedSuccess:
			obj, err := s.Finish(ev.Text, s.now())
			if err != nil {
				s.Close()
				return nil, err
			}
			notify(Update{Value: obj, Rendering: s.Rendering(), Final: true, Usage: ev.Usage})
			return obj, nil
		case llmstream.EventTypeError:
			s.Close()
			return nil, ev.Error
		}
	}
}

// Close destroys the document, releasing its glyphs. It is safe to call more than once and from any goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if err := s.doc.Destroy(); err != nil {
			s.Warn("session: destroy", "err", err)
		}
	})
}
