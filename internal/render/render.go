package render

import (
	"strconv"
	"strings"

	"github.com/mediacutlet/nomadachi/internal/title"
)

// DefaultFormat is the stock status template
const DefaultFormat = "{title} ({places}pl)"

// Prefix is the literal label shown ahead of the rendered status line
const Prefix = "Trav "

// MaxLabel replaces the progress bar at the top tier
const MaxLabel = "[MAX]"

// Status carries the values substituted into a status template
type Status struct {
	Title  string
	Level  int
	Places int
}

// Line renders a status template. Recognized tokens are {title}, {level}
// (the numeric tier index) and {places}; unrecognized tokens pass through
// verbatim so newer templates degrade gracefully on older builds. An empty
// format falls back to DefaultFormat.
func Line(format string, st Status) string {
	if format == "" {
		format = DefaultFormat
	}
	r := strings.NewReplacer(
		"{title}", st.Title,
		"{level}", strconv.Itoa(st.Level),
		"{places}", strconv.Itoa(st.Places),
	)
	return r.Replace(format)
}

// Bar renders progress toward the next tier as a fixed-width cell bar
// between pipes, or MaxLabel at the top tier. The fill fraction is
// position within the surrounding thresholds, clamped to [0,1].
func Bar(xp int, book *title.Book, cells int, fill rune) string {
	prev, next, atMax := book.Bounds(xp)
	if atMax {
		return MaxLabel
	}
	if cells < 1 {
		cells = 1
	}
	span := next - prev
	if span < 1 {
		span = 1
	}
	frac := float64(xp-prev) / float64(span)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(cells))
	var b strings.Builder
	b.WriteByte('|')
	for i := 0; i < cells; i++ {
		if i < filled {
			b.WriteRune(fill)
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('|')
	return b.String()
}
