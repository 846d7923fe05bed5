package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/spec-kit/support-triage/internal/render"
)

func messageColor(m render.Message) *color.Color {
	switch m.Color {
	case render.ColorSuccess:
		return color.New(color.FgHiGreen, color.Bold)
	case render.ColorError:
		return color.New(color.FgRed, color.Bold)
	case render.ColorList:
		return color.New(color.FgMagenta, color.Bold)
	default:
		return color.New(color.FgHiBlue, color.Bold)
	}
}

// printMessage writes a rendered message the way a chat embed would lay it out.
func printMessage(w io.Writer, m render.Message) {
	if m.Title != "" {
		fmt.Fprintln(w, messageColor(m).Sprint(m.Title))
	}
	if m.Description != "" {
		fmt.Fprintln(w, m.Description)
	}
	if len(m.Fields) > 0 {
		fmt.Fprintln(w)
		label := color.New(color.FgCyan)
		for _, f := range m.Fields {
			fmt.Fprintf(w, "  %s %s\n", label.Sprint(f.Name+":"), f.Value)
		}
	}
	if m.OfferID != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, color.New(color.FgHiMagenta).Sprintf("Escalate with: triagectl escalate %s", m.OfferID))
	}
	if m.Footer != "" {
		fmt.Fprintln(w, color.New(color.Faint).Sprint(m.Footer))
	}
}
