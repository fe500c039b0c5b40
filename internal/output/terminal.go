package output

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// fdWriter is implemented by *os.File.
type fdWriter interface {
	io.Writer
	Fd() uintptr
}

// ColorEnabled reports whether colored output should be written to w.
func ColorEnabled(w io.Writer, noColor bool) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(fdWriter)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
