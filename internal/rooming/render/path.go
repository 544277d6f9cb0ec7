package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/1imo/rooming-service/internal/rooming/geometry"
)

// ============================================================
// Path Parser
// ============================================================

var ErrUnsupportedPath = errors.New("unsupported path data")

// ParsePath reads the outline of an SVG path made of M, L, H, V and Z
// commands (absolute and relative). Coordinates are returned in path units.
// Extra coordinate pairs after M or L repeat the line command, and a closing
// point equal to the first one is dropped.
func ParsePath(d string) ([]geometry.Point, error) {
	tokens, err := tokenize(d)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty path: %w", ErrUnsupportedPath)
	}

	var (
		points []geometry.Point
		cur    geometry.Point
		cmd    byte
	)
	for i := 0; i < len(tokens); {
		if tokens[i].cmd != 0 {
			cmd = tokens[i].cmd
			i++
			if cmd == 'Z' || cmd == 'z' {
				if len(points) > 0 {
					cur = points[0]
				}
				continue
			}
		} else if cmd == 0 {
			return nil, fmt.Errorf("path must start with a command: %w", ErrUnsupportedPath)
		}

		need := 2
		if cmd == 'H' || cmd == 'h' || cmd == 'V' || cmd == 'v' {
			need = 1
		}
		args, ok := numbers(tokens[i:], need)
		if !ok {
			return nil, fmt.Errorf("command %c needs %d numbers: %w", cmd, need, ErrUnsupportedPath)
		}
		i += need

		switch cmd {
		case 'M', 'L':
			cur = geometry.Point{X: args[0], Y: args[1]}
		case 'm', 'l':
			cur = geometry.Point{X: cur.X + args[0], Y: cur.Y + args[1]}
		case 'H':
			cur.X = args[0]
		case 'h':
			cur.X += args[0]
		case 'V':
			cur.Y = args[0]
		case 'v':
			cur.Y += args[0]
		default:
			return nil, fmt.Errorf("command %c: %w", cmd, ErrUnsupportedPath)
		}
		points = append(points, cur)

		// coordinates following a moveto are implicit linetos
		if cmd == 'M' {
			cmd = 'L'
		} else if cmd == 'm' {
			cmd = 'l'
		}
	}

	if n := len(points); n > 1 && points[n-1] == points[0] {
		points = points[:n-1]
	}
	return points, nil
}

type token struct {
	cmd byte
	num float64
}

func tokenize(d string) ([]token, error) {
	var out []token
	s := strings.TrimSpace(d)
	for len(s) > 0 {
		c := s[0]
		switch {
		case c == ',' || unicode.IsSpace(rune(c)):
			s = s[1:]
		case strings.IndexByte("MmLlHhVvZz", c) >= 0:
			out = append(out, token{cmd: c})
			s = s[1:]
		case strings.IndexByte("CcSsQqTtAa", c) >= 0:
			return nil, fmt.Errorf("curve command %c: %w", c, ErrUnsupportedPath)
		default:
			n := numberLen(s)
			if n == 0 {
				return nil, fmt.Errorf("unexpected %q: %w", c, ErrUnsupportedPath)
			}
			v, err := strconv.ParseFloat(s[:n], 64)
			if err != nil {
				return nil, fmt.Errorf("number %q: %w", s[:n], ErrUnsupportedPath)
			}
			out = append(out, token{num: v})
			s = s[n:]
		}
	}
	return out, nil
}

// numberLen returns the length of the number at the start of s.
func numberLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits, dot := false, false
	for i < len(s) {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		case (c == 'e' || c == 'E') && digits:
			j := i + 1
			if j < len(s) && (s[j] == '+' || s[j] == '-') {
				j++
			}
			if j < len(s) && s[j] >= '0' && s[j] <= '9' {
				i = j
				continue
			}
			return i
		default:
			if !digits {
				return 0
			}
			return i
		}
		i++
	}
	if !digits {
		return 0
	}
	return i
}

func numbers(tokens []token, n int) ([]float64, bool) {
	if len(tokens) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if tokens[i].cmd != 0 {
			return nil, false
		}
		out[i] = tokens[i].num
	}
	return out, true
}
