package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrInvalidEscape is returned by Unescape for an unknown or truncated
// escape sequence.
var ErrInvalidEscape = errors.New("invalid escape sequence")

// Unescape decodes the backslash escapes used in JavaScript string literals
// of next-page handlers, for example \x3d or \'.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(s) {
			return "", fmt.Errorf("%w: trailing backslash", ErrInvalidEscape)
		}

		esc := s[i+1]
		switch esc {
		case '\\', '\'', '"', '/':
			b.WriteByte(esc)
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			r, err := strconv.ParseUint(s[i+1:j], 8, 32)
			if err != nil {
				return "", fmt.Errorf("%w: %q", ErrInvalidEscape, s[i:j])
			}
			b.WriteRune(rune(r))
			i = j
		case 'x', 'u', 'U':
			width := 2
			switch esc {
			case 'u':
				width = 4
			case 'U':
				width = 8
			}
			end := i + 2 + width
			if end > len(s) {
				return "", fmt.Errorf("%w: truncated %q", ErrInvalidEscape, s[i:])
			}
			r, err := strconv.ParseUint(s[i+2:end], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: %q", ErrInvalidEscape, s[i:end])
			}
			if !utf8.ValidRune(rune(r)) {
				return "", fmt.Errorf("%w: %q is not a valid code point", ErrInvalidEscape, s[i:end])
			}
			b.WriteRune(rune(r))
			i = end
		default:
			return "", fmt.Errorf("%w: %q", ErrInvalidEscape, s[i:i+2])
		}
	}
	return b.String(), nil
}
