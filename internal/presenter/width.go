package presenter

import (
	"io"
	"os"
	"strconv"
)

const fallbackWidth = 100

// detectWidth returns the column count of w when it is a terminal, then
// $COLUMNS, then a fixed fallback.
func detectWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if cols := terminalWidth(f); cols > 0 {
			return cols
		}
	}
	if cols, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && cols > 0 {
		return cols
	}
	return fallbackWidth
}
