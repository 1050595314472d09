package state

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ARGB is a packed 32-bit color, byte order alpha-red-green-blue. On
// the wire it is "#" followed by eight lowercase hex digits of the
// packed integer; the encoding must round-trip exactly.
type ARGB uint32

// RGBA packs 8-bit channels into an ARGB value.
func RGBA(r, g, b, a uint8) ARGB {
	return ARGB(uint32(a)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

func (c ARGB) Alpha() uint8 { return uint8(c >> 24) }
func (c ARGB) Red() uint8   { return uint8(c >> 16) }
func (c ARGB) Green() uint8 { return uint8(c >> 8) }
func (c ARGB) Blue() uint8  { return uint8(c) }

// Hex renders the wire form, e.g. RGBA(255,0,0,255) -> "#ffff0000".
func (c ARGB) Hex() string {
	return fmt.Sprintf("#%08x", uint32(c))
}

// ParseARGB parses the wire form back into the identical packed value.
// A leading '#' is optional. Six-digit strings are accepted as fully
// opaque RGB for compatibility with plain CSS colors.
func ParseARGB(s string) (ARGB, error) {
	s = strings.TrimPrefix(s, "#")
	switch len(s) {
	case 8:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parse color %q: %w", s, err)
		}
		return ARGB(v), nil
	case 6:
		v, err := strconv.ParseUint(s, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parse color %q: %w", s, err)
		}
		return ARGB(v) | 0xff000000, nil
	default:
		return 0, fmt.Errorf("parse color %q: want 6 or 8 hex digits", s)
	}
}

// NRGBA converts to the stdlib color type for rendering.
func (c ARGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.Red(), G: c.Green(), B: c.Blue(), A: c.Alpha()}
}

// MarshalJSON encodes the color as its hex wire string.
func (c ARGB) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(c.Hex())), nil
}

// UnmarshalJSON accepts either the hex wire string or a bare integer.
func (c *ARGB) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		v, err := ParseARGB(s)
		if err != nil {
			return err
		}
		*c = v
		return nil
	}
	v, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return fmt.Errorf("parse color %s: %w", data, err)
	}
	*c = ARGB(v)
	return nil
}
