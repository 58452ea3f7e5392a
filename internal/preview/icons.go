package preview

import (
	"errors"
	"strings"
	"sync"

	"github.com/codalotl/streamfill/internal/spandoc"
)

var ErrUnknownIcon = errors.New("preview: unknown icon")

// DefaultIcons maps the drawable names used by bill previews to single-column terminal icons.
var DefaultIcons = map[string]string{
	"ic_account_box":   "@",
	"ic_poll":          "#",
	"ic_attach_money":  "$",
	"ic_mode_edit":     "✎",
	"ic_event_note":    "≡",
	"ic_access_alarms": "◷",
	"ic_portrait":      "»",
}

// Icons is a spandoc.GlyphProvider backed by terminal icons. It counts live handles so a caller can check that every acquired glyph was released.
type Icons struct {
	icons map[string]string

	mu   sync.Mutex
	live int
}

// NewIcons returns Icons for the given name→icon table. A nil table means DefaultIcons.
func NewIcons(icons map[string]string) *Icons {
	if icons == nil {
		icons = DefaultIcons
	}
	return &Icons{icons: icons}
}

// Acquire returns a handle for src. width and height are accepted for interface conformance; terminal icons are always one cell. Unknown sources fail with
// ErrUnknownIcon.
func (ic *Icons) Acquire(src string, tint spandoc.Color, width, height int) (spandoc.GlyphHandle, error) {
	if _, ok := ic.Icon(src); !ok {
		return nil, ErrUnknownIcon
	}
	ic.mu.Lock()
	ic.live++
	ic.mu.Unlock()
	return &iconHandle{icons: ic}, nil
}

// Icon returns the icon for src. src may be a bare name ("ic_poll"), a resource reference ("@drawable/ic_poll"), or carry a size/color suffix ("ic_poll_black_48dp").
func (ic *Icons) Icon(src string) (string, bool) {
	name := drawableName(src)
	if s, ok := ic.icons[name]; ok {
		return s, true
	}
	// Longest known prefix wins, so suffixes like "_black_48dp" resolve.
	best := ""
	for k := range ic.icons {
		if strings.HasPrefix(name, k+"_") && len(k) > len(best) {
			best = k
		}
	}
	if best == "" {
		return "", false
	}
	return ic.icons[best], true
}

// Live returns the number of handles acquired and not yet released.
func (ic *Icons) Live() int {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.live
}

func drawableName(src string) string {
	if i := strings.LastIndexByte(src, '/'); i >= 0 {
		src = src[i+1:]
	}
	return strings.TrimPrefix(src, "@")
}

type iconHandle struct {
	icons *Icons
	once  sync.Once
}

func (h *iconHandle) Release() {
	h.once.Do(func() {
		h.icons.mu.Lock()
		h.icons.live--
		h.icons.mu.Unlock()
	})
}
