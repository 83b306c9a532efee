// SPDX-License-Identifier: MIT

package log

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// AccessFormatter renders the human-readable access line
// "METHOD path - duration".
type AccessFormatter struct {
	color   bool
	method  lipgloss.Style
	path    lipgloss.Style
	elapsed lipgloss.Style
}

// NewAccessFormatter returns a formatter. With color set, the method is
// green, the path cyan and the duration bold, independent of whether out is
// a terminal.
func NewAccessFormatter(out io.Writer, color bool) *AccessFormatter {
	r := lipgloss.NewRenderer(out)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &AccessFormatter{
		color:   color,
		method:  r.NewStyle().Foreground(lipgloss.Color("2")),
		path:    r.NewStyle().Foreground(lipgloss.Color("6")),
		elapsed: r.NewStyle().Bold(true),
	}
}

// Colored reports whether lines carry ANSI styling.
func (f *AccessFormatter) Colored() bool {
	return f.color
}

// Format renders one access line.
func (f *AccessFormatter) Format(method, path, responseTime string) string {
	if !f.color {
		return method + " " + path + " - " + responseTime
	}
	return f.method.Render(method) + " " + f.path.Render(path) + " - " + f.elapsed.Render(responseTime)
}
