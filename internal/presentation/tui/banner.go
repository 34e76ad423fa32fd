package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the nestflow banner and version.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                 _    __ _               ", "#3b82f6"},
		{"  _ __   ___ ___| |_ / _| | _____      __", "#10b981"},
		{" | '_ \\ / _ / __| __| |_| |/ _ \\ \\ /\\ / /", "#8b5cf6"},
		{" | | | |  __\\__ \\ |_|  _| | (_) \\ V  V / ", "#f59e0b"},
		{" |_| |_|\\___|___/\\__|_| |_|\\___/ \\_/\\_/  ", "#ec4899"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  "+version).Faint())
	fmt.Fprintln(w)
}
