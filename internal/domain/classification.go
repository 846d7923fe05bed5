package domain

import "strings"

// Action is the triage decision.
type Action string

const (
	ActionResolve  Action = "resolve"
	ActionEscalate Action = "escalate"
)

// Severity of the reported issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Urgency of the reported issue.
type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
)

// Category groups issues by the part of the appliance involved.
type Category string

const (
	CategoryDetergent  Category = "detergent"
	CategoryMechanical Category = "mechanical"
	CategoryElectrical Category = "electrical"
	CategoryDoor       Category = "door"
	CategoryCleaning   Category = "cleaning"
	CategoryDrainage   Category = "drainage"
	CategoryOther      Category = "other"
)

// FallbackGuidance is shown whenever classification could not be obtained.
const FallbackGuidance = "I'm having trouble analyzing your issue right now. Let me create a support ticket so our team can help you directly."

// Classification is the structured triage decision for one issue report.
type Classification struct {
	Action   Action
	Guidance string
	Severity Severity
	Category Category
	Urgency  Urgency
}

// FallbackClassification substitutes for any classification failure.
func FallbackClassification() Classification {
	return Classification{
		Action:   ActionEscalate,
		Guidance: FallbackGuidance,
		Severity: SeverityMedium,
		Category: CategoryOther,
		Urgency:  UrgencyNormal,
	}
}

var actionAliases = map[string]Action{
	"resolve":          ActionResolve,
	"provide_solution": ActionResolve,
	"escalate":         ActionEscalate,
	"create_ticket":    ActionEscalate,
}

// ParseAction maps upstream literals (including legacy aliases) onto an Action.
func ParseAction(raw string) (Action, bool) {
	a, ok := actionAliases[normalizeLiteral(raw)]
	return a, ok
}

// ParseSeverity accepts low, medium and high.
func ParseSeverity(raw string) (Severity, bool) {
	switch s := Severity(normalizeLiteral(raw)); s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return s, true
	}
	return "", false
}

// ParseUrgency accepts normal and high.
func ParseUrgency(raw string) (Urgency, bool) {
	switch u := Urgency(normalizeLiteral(raw)); u {
	case UrgencyNormal, UrgencyHigh:
		return u, true
	}
	return "", false
}

// ParseCategory accepts the known appliance categories.
func ParseCategory(raw string) (Category, bool) {
	switch c := Category(normalizeLiteral(raw)); c {
	case CategoryDetergent, CategoryMechanical, CategoryElectrical, CategoryDoor,
		CategoryCleaning, CategoryDrainage, CategoryOther:
		return c, true
	}
	return "", false
}

// Valid reports whether every enumerated field holds an accepted value.
func (c Classification) Valid() bool {
	if _, ok := ParseAction(string(c.Action)); !ok {
		return false
	}
	if _, ok := ParseSeverity(string(c.Severity)); !ok {
		return false
	}
	if _, ok := ParseUrgency(string(c.Urgency)); !ok {
		return false
	}
	_, ok := ParseCategory(string(c.Category))
	return ok
}

// Title renders a category for people, e.g. "mechanical" -> "Mechanical".
func (c Category) Title() string {
	return TitleCase(string(c))
}

// Title renders a severity for people, e.g. "high" -> "High".
func (s Severity) Title() string {
	return TitleCase(string(s))
}

// TitleCase upper-cases the first letter of every word; underscores count as spaces.
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

func normalizeLiteral(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
