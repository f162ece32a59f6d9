package main

import (
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/mattn/go-isatty"
)

const (
	markupLexer     = "html"
	markupFormatter = "terminal256"
	markupStyle     = "monokai"
)

// colorModes are the accepted --color values.
var colorModes = []string{"auto", "always", "never"}

// wantColor resolves a --color mode for w. auto colors only terminals.
func wantColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// highlightMarkup renders HTML with terminal colors. On a highlighter
// failure the markup comes back unchanged.
func highlightMarkup(markup string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, markup, markupLexer, markupFormatter, markupStyle); err != nil {
		return markup
	}
	return strings.TrimRight(b.String(), "\n")
}
