package tui

import (
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
	"github.com/muesli/termenv"
)

// Swatch renders a node type as a colored tag, e.g. "● router".
func Swatch(t domain.NodeType) string {
	p := termenv.ColorProfile()
	return termenv.String(fmt.Sprintf("● %s", t)).Foreground(p.Color(domain.ColorFor(t))).String()
}

// Heading renders a bold title line.
func Heading(text string) string {
	return termenv.String(text).Bold().String()
}

// Faint renders secondary text.
func Faint(text string) string {
	return termenv.String(text).Faint().String()
}
