// Package render turns triage outcomes into platform-neutral chat messages.
package render

import (
	"fmt"
	"strings"

	"github.com/spec-kit/support-triage/internal/domain"
	"github.com/spec-kit/support-triage/internal/service"
)

// Colors.
const (
	ColorSuccess = 0x4CAF50
	ColorInfo    = 0x2196F3
	ColorError   = 0xF44336
	ColorList    = 0x9C27B0
)

const issuePreviewLen = 50

// Field is one labelled value of a message.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Message is what a chat collaborator shows the requester. A non-empty
// OfferID means the collaborator should attach the escalation affordance.
type Message struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description"`
	Color       int     `json:"color"`
	Fields      []Field `json:"fields,omitempty"`
	Footer      string  `json:"footer,omitempty"`
	OfferID     string  `json:"offer_id,omitempty"`
}

var greetings = map[string]struct{}{"": {}, "hi": {}, "hello": {}, "help": {}}

// IsGreeting reports whether text should get the help message instead of triage.
func IsGreeting(text string) bool {
	_, ok := greetings[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// Help describes what the assistant does.
func Help() Message {
	return Message{
		Title: "🔧 Washing Machine Support Bot",
		Description: "I'm here to help with washing machine problems!\n\n" +
			"Just describe your issue and I'll either:\n" +
			"• Provide troubleshooting steps\n" +
			"• Create a support ticket for complex issues\n\n" +
			"**Example:** *My washing machine won't drain water*",
		Color: ColorSuccess,
		Fields: []Field{{
			Name: "Commands",
			Value: "`status [ticket_id]` - Check your latest ticket\n" +
				"`tickets` - View all your tickets\n" +
				"`help` - Show this help message",
		}},
	}
}

// Result renders the outcome of Handle or Escalate.
func Result(res *service.TriageResult) Message {
	switch res.Kind {
	case service.ResultGuidance:
		return Guidance(res.Guidance)
	case service.ResultTicketCreated:
		return TicketCreated(res.Ticket, res.Classification)
	default:
		return TicketCreationFailed()
	}
}

// Guidance renders inline troubleshooting steps.
func Guidance(g *service.Guidance) Message {
	msg := Message{
		Title:       "🔧 Troubleshooting Steps",
		Description: g.Text,
		Color:       ColorInfo,
		Fields: []Field{
			{Name: "Severity", Value: g.Severity.Title(), Inline: true},
			{Name: "Category", Value: g.Category.Title(), Inline: true},
		},
		OfferID: g.OfferID,
	}
	if g.OfferID != "" {
		msg.Footer = "If this doesn't solve your problem, react with 🎫 to create a support ticket."
	}
	return msg
}

// TicketCreated confirms a new ticket.
func TicketCreated(t *domain.Ticket, c domain.Classification) Message {
	next := c.Guidance
	if strings.TrimSpace(next) == "" {
		next = "Our support team will review your issue and get back to you soon."
	}
	return Message{
		Title:       "🎫 Support Ticket Created",
		Description: "Your support ticket has been created successfully!",
		Color:       ColorSuccess,
		Fields: []Field{
			{Name: "Ticket ID", Value: "`" + t.ID + "`", Inline: true},
			{Name: "Status", Value: t.Status, Inline: true},
			{Name: "Severity", Value: t.Severity.Title(), Inline: true},
			{Name: "Next Steps", Value: next},
		},
		Footer: fmt.Sprintf("Use 'status %s' to check ticket status", t.ID),
	}
}

// TicketCreationFailed tells the requester no ticket could be created.
func TicketCreationFailed() Message {
	return Message{
		Title:       "❌ Ticket Creation Failed",
		Description: "Sorry, I couldn't create a support ticket right now. Please try again later or contact support directly.",
		Color:       ColorError,
	}
}

// Status renders a status lookup.
func Status(res *service.StatusResult) Message {
	if !res.Found {
		return StatusNotFound(res.TicketID)
	}
	s := res.Snapshot
	return Message{
		Title: "🎫 Ticket Status: " + res.TicketID,
		Color: ColorInfo,
		Fields: []Field{
			{Name: "Summary", Value: orDefault(s.Summary, "N/A")},
			{Name: "Status", Value: orDefault(s.Status, "Unknown"), Inline: true},
			{Name: "Priority", Value: orDefault(s.Priority, "Unknown"), Inline: true},
			{Name: "Severity", Value: orDefault(s.Severity, "Unknown"), Inline: true},
		},
	}
}

// StatusNotFound covers both missing and unreachable tickets.
func StatusNotFound(ticketID string) Message {
	return Message{
		Description: fmt.Sprintf("❌ Couldn't find ticket `%s` or access was denied.", ticketID),
		Color:       ColorError,
	}
}

// NoLatestTicket is shown when status is asked without an id and none is known.
func NoLatestTicket() Message {
	return Message{
		Description: "❌ No ticket ID provided and no recent tickets found. Use `tickets` to see all your tickets.",
		Color:       ColorError,
	}
}

// TicketList renders a page of the requester's tickets.
func TicketList(page *domain.TicketPage) Message {
	if len(page.Tickets) == 0 {
		return Message{Description: "📋 You don't have any support tickets yet.", Color: ColorList}
	}

	msg := Message{
		Title:       "📋 Your Support Tickets",
		Description: fmt.Sprintf("Found %d ticket(s)", page.Total),
		Color:       ColorList,
	}
	for _, t := range page.Tickets {
		msg.Fields = append(msg.Fields, Field{
			Name: "Ticket " + t.ID,
			Value: fmt.Sprintf("**Issue:** %s\n**Severity:** %s\n**Created:** %s",
				Preview(t.Description), t.Severity, t.CreatedAt.Format("2006-01-02 15:04")),
		})
	}
	if page.Truncated() {
		msg.Footer = fmt.Sprintf("Showing latest %d tickets out of %d total", len(page.Tickets), page.Total)
	}
	return msg
}

// Rejected renders a refused escalation.
func Rejected(reason string) Message {
	return Message{Description: "❌ " + reason, Color: ColorError}
}

// Failure is the generic apology for unexpected errors.
func Failure() Message {
	return Message{
		Description: "❌ Sorry, I encountered an error. Please try again or contact support directly.",
		Color:       ColorError,
	}
}

// Preview shortens text to the list preview length, marking truncation.
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= issuePreviewLen {
		return text
	}
	return string(runes[:issuePreviewLen]) + "..."
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
