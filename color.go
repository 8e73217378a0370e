package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// ErrInvalidColor is returned when a colour string is neither a hex value
// nor a known colour name.
var ErrInvalidColor = errors.New("sandbox: invalid color")

// RGBA is a colour with components in [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// RGB creates an opaque colour.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// ParseColor parses a hex colour ("#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA",
// the '#' is optional) or an SVG colour name such as "cornflowerblue".
func ParseColor(s string) (RGBA, error) {
	s = strings.TrimSpace(s)
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return RGBA{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}, nil
	}
	return Hex(s)
}

// Hex parses a hex colour string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA".
func Hex(hex string) (RGBA, error) {
	s := strings.TrimPrefix(hex, "#")

	var r, g, b uint32
	a := uint32(255)
	ok := true
	switch len(s) {
	case 3, 4:
		ok = parseHex(s[0:1], &r) && parseHex(s[1:2], &g) && parseHex(s[2:3], &b)
		r, g, b = r*17, g*17, b*17
		if len(s) == 4 {
			ok = ok && parseHex(s[3:4], &a)
			a *= 17
		}
	case 6, 8:
		ok = parseHex(s[0:2], &r) && parseHex(s[2:4], &g) && parseHex(s[4:6], &b)
		if len(s) == 8 {
			ok = ok && parseHex(s[6:8], &a)
		}
	default:
		ok = false
	}
	if !ok {
		return RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}
	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, nil
}

// parseHex accumulates the hex digits of s into val. It reports false on a
// non-hex digit.
func parseHex(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return false
		}
	}
	return true
}

// GPU converts c to the clear colour type used by render passes.
func (c RGBA) GPU() gputypes.Color {
	return gputypes.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// String formats c as "#RRGGBBAA".
func (c RGBA) String() string {
	return fmt.Sprintf("#%02x%02x%02x%02x", to255(c.R), to255(c.G), to255(c.B), to255(c.A))
}

func to255(x float64) uint8 {
	x = min(max(x, 0), 1)
	return uint8(x*255 + 0.5)
}

// UnmarshalYAML accepts a hex string or a colour name.
func (c *RGBA) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("%w: line %d: %w", ErrInvalidColor, value.Line, err)
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*c = parsed
	return nil
}

// MarshalYAML writes c as a hex string.
func (c RGBA) MarshalYAML() (any, error) {
	return c.String(), nil
}
