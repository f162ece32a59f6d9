package course

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/entrhq/coursepilot/pkg/dom"
)

// ParseProgress reads a leading integer the way JavaScript's parseInt does:
// leading whitespace, an optional sign, then digits up to the first
// non-digit. "93%" is 93; "%93" and "" have no value. Digit runs too long
// for an int clamp to the int range.
func ParseProgress(text string) (int, bool) {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)

	end := 0
	if end < len(text) && (text[end] == '+' || text[end] == '-') {
		end++
	}
	digits := end
	for end < len(text) && text[end] >= '0' && text[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	// Atoi returns the clamped value alongside ErrRange.
	n, err := strconv.Atoi(text[:end])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return n, true
}

// ReadProgress returns the course completion percentage. Each of the origin,
// its parent and its top is searched for the progress display, first in its
// own document and then inside the frames named in progressFrames. The
// first parseable value wins; false means nothing readable was found.
func ReadProgress(origin dom.Context) (int, bool) {
	for _, candidate := range dom.Candidates(origin) {
		n, ok, err := progressIn(candidate)
		if err != nil {
			continue
		}
		if ok {
			return n, true
		}

		for _, name := range progressFrames {
			for _, frame := range dom.LocateAll(candidate, name) {
				if n, ok, _ := progressIn(frame); ok {
					return n, true
				}
			}
		}
	}
	return 0, false
}

func progressIn(ctx dom.Context) (int, bool, error) {
	el, err := ctx.ElementByID(IDProgress)
	if err != nil {
		return 0, false, err
	}
	if el == nil {
		return 0, false, nil
	}

	text, err := el.Text()
	if err != nil {
		return 0, false, err
	}
	n, ok := ParseProgress(text)
	return n, ok, nil
}
