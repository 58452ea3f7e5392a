package spandoc

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is a 32-bit ARGB color. The zero Color means "default" (Black) in an Element.
type Color uint32

const (
	Black Color = 0xFF000000
	Red   Color = 0xFFFF0000
	White Color = 0xFFFFFFFF
)

// ParseColor parses "#RRGGBB" (opaque) or "#AARRGGBB".
func ParseColor(s string) (Color, error) {
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return 0, fmt.Errorf("spandoc: invalid color %q", s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("spandoc: invalid color %q", s)
	}
	if len(hex) == 6 {
		n |= 0xFF000000
	}
	return Color(n), nil
}

// MustParseColor is like ParseColor but panics on error. It is meant for package-level color tables.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) A() uint8 { return uint8(c >> 24) }
func (c Color) R() uint8 { return uint8(c >> 16) }
func (c Color) G() uint8 { return uint8(c >> 8) }
func (c Color) B() uint8 { return uint8(c) }

// Hex formats c as "#RRGGBB" when opaque, and "#AARRGGBB" otherwise.
func (c Color) Hex() string {
	if c.A() == 0xFF {
		return fmt.Sprintf("#%02X%02X%02X", c.R(), c.G(), c.B())
	}
	return fmt.Sprintf("#%08X", uint32(c))
}

func (c Color) orDefault() Color {
	if c == 0 {
		return Black
	}
	return c
}
