package tui

// Rect represents a rectangular region of the terminal.
type Rect struct {
	X, Y, Width, Height int
}

// editorHeight is the request editor's outer height: five text rows plus a
// border.
const editorHeight = 7

// Layout holds the computed panel geometry for a given terminal size.
type Layout struct {
	Header, Footer     Rect
	Transcript, Editor Rect
	Console, Trace     Rect
	TooSmall           bool // true when terminal is below the minimum 80×24
}

// Calculate computes the panel layout for a terminal of the given dimensions.
// Returns a Layout with TooSmall=true if width < 80 or height < 24.
//
// Algorithm:
//   - Header: full width, 1 row at top
//   - Footer (status bar): full width, 1 row at bottom
//   - Left column: 60% of width, transcript on top of a fixed-height editor
//   - Right column: console on top (55% of body height) and trace below
//   - With the trace hidden the console takes the whole right column and
//     Trace is the zero Rect
func Calculate(width, height int, showTrace bool) Layout {
	if width < 80 || height < 24 {
		return Layout{TooSmall: true}
	}

	bodyH := height - 2 // subtract header + footer rows

	leftW := width * 60 / 100
	rightW := width - leftW

	transcriptH := bodyH - editorHeight

	consoleH := bodyH
	var traceRect Rect
	if showTrace {
		consoleH = bodyH * 55 / 100
		traceRect = Rect{X: leftW, Y: 1 + consoleH, Width: rightW, Height: bodyH - consoleH}
	}

	return Layout{
		Header:     Rect{X: 0, Y: 0, Width: width, Height: 1},
		Footer:     Rect{X: 0, Y: height - 1, Width: width, Height: 1},
		Transcript: Rect{X: 0, Y: 1, Width: leftW, Height: transcriptH},
		Editor:     Rect{X: 0, Y: 1 + transcriptH, Width: leftW, Height: editorHeight},
		Console:    Rect{X: leftW, Y: 1, Width: rightW, Height: consoleH},
		Trace:      traceRect,
	}
}

// innerDims returns the content dimensions for a panel rect accounting for
// the 1-character border on each side (2 total per dimension).
func innerDims(r Rect) (w, h int) {
	w = r.Width - 2
	if w < 1 {
		w = 1
	}
	h = r.Height - 2
	if h < 1 {
		h = 1
	}
	return
}
