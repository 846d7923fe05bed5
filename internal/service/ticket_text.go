package service

import (
	"fmt"
	"strings"

	"github.com/spec-kit/support-triage/internal/domain"
)

const (
	placeholder         = "N/A"
	directChannel       = "DM"
	noAnalysisAvailable = "No additional analysis available"
)

// TicketSummary is the one-line title of a ticket created for c.
func TicketSummary(c domain.Classification) string {
	return c.Category.Title() + " issue"
}

// ComposeDescription renders the ticket body sent to the tracker. Every line is
// always present; empty values show a placeholder.
func ComposeDescription(issue domain.IssueReport, c domain.Classification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**User:** %s (%s)\n", orPlaceholder(issue.RequesterID, placeholder), orPlaceholder(issue.RequesterName, placeholder))
	fmt.Fprintf(&b, "**Issue:** %s\n", orPlaceholder(issue.RawText, placeholder))
	fmt.Fprintf(&b, "**Severity:** %s\n", orPlaceholder(string(c.Severity), placeholder))
	fmt.Fprintf(&b, "**Category:** %s\n", orPlaceholder(string(c.Category), placeholder))
	fmt.Fprintf(&b, "**Urgency:** %s\n", orPlaceholder(string(c.Urgency), placeholder))
	fmt.Fprintf(&b, "**Channel:** %s\n", orPlaceholder(issue.ConversationRef, directChannel))
	b.WriteString("\n")
	fmt.Fprintf(&b, "**AI Analysis:** %s", orPlaceholder(c.Guidance, noAnalysisAvailable))
	return b.String()
}

func orPlaceholder(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimSpace(value)
}
