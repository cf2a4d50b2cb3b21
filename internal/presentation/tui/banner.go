package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the ASCII art banner and the version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Indigo to rose, one shade per row
	rows := []struct{ text, color string }{
		{" _                    _ _               ", "#818cf8"},
		{"| |__   ___  __ _  __| | | ___  ___ ___ ", "#a78bfa"},
		{"| '_ \\ / _ \\/ _` |/ _` | |/ _ \\/ __/ __|", "#c084fc"},
		{"| | | |  __/ (_| | (_| | |  __/\\__ \\__ \\", "#e879f9"},
		{"|_| |_|\\___|\\__,_|\\__,_|_|\\___||___/___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, r := range rows {
		fmt.Fprintln(w, out.String(r.text).Foreground(out.Color(r.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version+"  type 'help' to list commands").Faint())
	fmt.Fprintln(w)
}
