package score

import (
	"bufio"
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/oisee/polysynth/pkg/synth"
)

// ErrSyntax is returned for a malformed score token
var ErrSyntax = errors.New("score syntax error")

// Parse reads a score. Tokens are separated by whitespace and '#' starts a
// comment running to the end of the line:
//
//	C-3@0+0.5      press C-3 at 0s, release it 0.5s later
//	bell@1.0       switch newly pressed notes to the bell at 1s
func Parse(r io.Reader) (*Score, error) {
	s := &Score{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		for _, tok := range strings.Fields(text) {
			evs, err := parseToken(tok)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			s.Events = append(s.Events, evs...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading score: %w", err)
	}

	slices.SortStableFunc(s.Events, func(a, b Event) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	return s, nil
}

// ParseString is Parse over a string
func ParseString(text string) (*Score, error) {
	return Parse(strings.NewReader(text))
}

func parseToken(tok string) ([]Event, error) {
	name, when, ok := strings.Cut(tok, "@")
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: %q: want NAME@TIME", ErrSyntax, tok)
	}

	if degree, err := StringToDegree(name); err == nil {
		start, dur, ok := strings.Cut(when, "+")
		if !ok {
			return nil, fmt.Errorf("%w: %q: note needs a +DURATION", ErrSyntax, tok)
		}
		on, err := parseSeconds(start)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, tok, err)
		}
		length, err := parseSeconds(dur)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, tok, err)
		}
		return []Event{
			{Time: on, Kind: Press, Degree: degree},
			{Time: on + length, Kind: Release, Degree: degree},
		}, nil
	}

	ch, err := synth.ParseChannel(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is neither a note nor an instrument", ErrSyntax, name)
	}
	at, err := parseSeconds(when)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSyntax, tok, err)
	}
	return []Event{{Time: at, Kind: Select, Channel: ch}}, nil
}

func parseSeconds(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad time %q", s)
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("time %q must be a non-negative number", s)
	}
	return v, nil
}
