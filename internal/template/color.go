package template

import (
	"errors"
	"fmt"
	"image/color"
)

var ErrInvalidColor = errors.New("invalid color")

// ParseColor parses "#RGB", "#RGBA", "#RRGGBB" or "#RRGGBBAA". The leading
// '#' is optional.
func ParseColor(s string) (color.NRGBA, error) {
	hex := s
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b uint8
	a := uint8(255)
	var err error

	switch len(hex) {
	case 3, 4:
		var v [4]uint8
		for i := 0; i < len(hex); i++ {
			n, ok := hexDigit(hex[i])
			if !ok {
				err = ErrInvalidColor
				break
			}
			v[i] = n * 17
		}
		r, g, b = v[0], v[1], v[2]
		if len(hex) == 4 {
			a = v[3]
		}
	case 6, 8:
		var v [4]uint8
		for i := 0; i < len(hex); i += 2 {
			hi, ok1 := hexDigit(hex[i])
			lo, ok2 := hexDigit(hex[i+1])
			if !ok1 || !ok2 {
				err = ErrInvalidColor
				break
			}
			v[i/2] = hi<<4 | lo
		}
		r, g, b = v[0], v[1], v[2]
		if len(hex) == 8 {
			a = v[3]
		}
	default:
		err = ErrInvalidColor
	}
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", err, s)
	}
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
