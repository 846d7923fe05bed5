package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFallbackClassificationIsValid(t *testing.T) {
	fb := FallbackClassification()
	assert.True(t, fb.Valid())
	assert.Equal(t, ActionEscalate, fb.Action)
	assert.Equal(t, SeverityMedium, fb.Severity)
	assert.Equal(t, CategoryOther, fb.Category)
	assert.Equal(t, UrgencyNormal, fb.Urgency)
	assert.Equal(t, FallbackGuidance, fb.Guidance)
}

func TestParseActionAliases(t *testing.T) {
	cases := map[string]Action{
		"resolve":            ActionResolve,
		" Provide_Solution ": ActionResolve,
		"ESCALATE":           ActionEscalate,
		"create_ticket":      ActionEscalate,
	}
	for in, want := range cases {
		got, ok := ParseAction(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseAction("maybe")
	assert.False(t, ok)
}

func TestParseEnums(t *testing.T) {
	_, ok := ParseSeverity("critical")
	assert.False(t, ok)
	s, ok := ParseSeverity("High")
	assert.True(t, ok)
	assert.Equal(t, SeverityHigh, s)

	_, ok = ParseUrgency("low")
	assert.False(t, ok)

	c, ok := ParseCategory("Drainage")
	assert.True(t, ok)
	assert.Equal(t, CategoryDrainage, c)
	_, ok = ParseCategory("plumbing")
	assert.False(t, ok)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Mechanical", CategoryMechanical.Title())
	assert.Equal(t, "Error Codes", TitleCase("error_codes"))
	assert.Equal(t, "High", SeverityHigh.Title())
	assert.Equal(t, "", TitleCase("  "))
}

func TestOfferExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	offer := EscalationOffer{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, offer.Expired(now))
	assert.True(t, offer.Expired(now.Add(time.Minute)))
	assert.False(t, EscalationOffer{}.Expired(now))
}

func TestTicketPageTruncated(t *testing.T) {
	page := TicketPage{Tickets: make([]Ticket, 5), Total: 7, Limit: 5}
	assert.True(t, page.Truncated())
	page.Total = 5
	assert.False(t, page.Truncated())
}
