package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the flowcharts ASCII art banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct {
		text  string
		color string
	}{
		{"   __ _                     _                _       ", "#818cf8"},
		{"  / _| | _____      _____| |__   __ _ _ __| |_ ___ ", "#a78bfa"},
		{" | |_| |/ _ \\ \\ /\\ / / __| '_ \\ / _` | '__| __/ __|", "#c084fc"},
		{" |  _| | (_) \\ V  V / (__| | | | (_| | |  | |_\\__ \\", "#e879f9"},
		{" |_| |_|\\___/ \\_/\\_/ \\___|_| |_|\\__,_|_|   \\__|___/", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
