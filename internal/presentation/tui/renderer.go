package tui

import (
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Used by the CLI to pretty-print tool catalogs and call results.
func NewRenderer(width int) func(string) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(width),
	)

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}
