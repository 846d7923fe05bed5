package classifier

import (
	"encoding/json"
	"strings"

	"github.com/spec-kit/support-triage/internal/domain"
)

// reply mirrors the JSON object the classifier is asked to emit.
type reply struct {
	Action   string `json:"action"`
	Response string `json:"response"`
	Severity string `json:"severity"`
	Category string `json:"category"`
	Urgency  string `json:"urgency"`
}

// decodeReply parses text as the reply object, first strictly and then by
// extracting the first balanced {...} span from surrounding prose.
func decodeReply(text string) (reply, bool) {
	if r, ok := decodeStrict(text); ok {
		return r, true
	}
	fragment, ok := extractObject(text)
	if !ok {
		return reply{}, false
	}
	return decodeStrict(fragment)
}

func decodeStrict(text string) (reply, bool) {
	var r reply
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return reply{}, false
	}
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return reply{}, false
	}
	return r, true
}

// extractObject returns the first balanced {...} span in text. Braces inside
// JSON string literals are ignored.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// normalize maps a decoded reply onto a Classification whose enumerated fields
// always hold accepted values. An unusable action, or a resolve decision with
// no guidance, yields the fallback.
func normalize(r reply) domain.Classification {
	action, ok := domain.ParseAction(r.Action)
	if !ok {
		return domain.FallbackClassification()
	}
	guidance := strings.TrimSpace(r.Response)
	if action == domain.ActionResolve && guidance == "" {
		return domain.FallbackClassification()
	}

	out := domain.Classification{
		Action:   action,
		Guidance: guidance,
		Severity: domain.SeverityMedium,
		Category: domain.CategoryOther,
		Urgency:  domain.UrgencyNormal,
	}
	if s, ok := domain.ParseSeverity(r.Severity); ok {
		out.Severity = s
	}
	if c, ok := domain.ParseCategory(r.Category); ok {
		out.Category = c
	}
	if u, ok := domain.ParseUrgency(r.Urgency); ok {
		out.Urgency = u
	}
	return out
}

// Interpret turns raw classifier text into a Classification, falling back
// when nothing usable can be parsed. The bool reports whether parsing succeeded.
func Interpret(text string) (domain.Classification, bool) {
	r, ok := decodeReply(text)
	if !ok {
		return domain.FallbackClassification(), false
	}
	return normalize(r), true
}
