package service

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
)

// chartMarker locates the tag of an embedded chart object, tolerating
// whitespace around the colon.
var chartMarker = regexp.MustCompile(`"type"\s*:\s*"chart"`)

// ticketIDPattern matches internal record identifiers that must never reach
// the user. The redaction marker itself does not match the pattern, which
// makes redaction idempotent.
var ticketIDPattern = regexp.MustCompile(`\b[A-Z]{2}\d+\b`)

const redactionMarker = "[ticket-id]"

type ExtractResult struct {
	Text  string
	Chart *model.ChartPayload
}

// Extract scans raw LLM output for an embedded chart JSON object. A valid
// chart is returned parsed, with its explanation as the visible text; an
// invalid or unparseable one is discarded and stripped from the text. The
// chart is always all-or-nothing, never partial.
func Extract(rawText string) ExtractResult {
	span, start, end, ok := extractBalancedJSON(rawText, chartMarker)
	if !ok {
		return ExtractResult{Text: RedactTicketIDs(strings.TrimSpace(rawText))}
	}

	var chart model.ChartPayload
	if err := json.Unmarshal([]byte(span), &chart); err == nil && chart.ChartType.Valid() {
		text := strings.TrimSpace(chart.Explanation)
		if text == "" {
			text = strings.TrimSpace(rawText[:start] + rawText[end:])
		}
		return ExtractResult{
			Text:  RedactTicketIDs(text),
			Chart: &chart,
		}
	}

	// Parse failure or unknown chartType: show the surrounding prose with the
	// JSON fragment removed.
	cleaned := strings.TrimSpace(rawText[:start] + rawText[end:])
	return ExtractResult{Text: RedactTicketIDs(cleaned)}
}

// extractBalancedJSON finds the JSON object containing the first match of
// marker. It scans backward from the match to the nearest unmatched opening
// brace, then forward counting brace depth until it closes. This survives
// nested objects, which a regex over the span cannot.
func extractBalancedJSON(text string, marker *regexp.Regexp) (span string, start, end int, ok bool) {
	loc := marker.FindStringIndex(text)
	if loc == nil {
		return "", 0, 0, false
	}

	depth := 0
	start = -1
	for i := loc[0] - 1; i >= 0; i-- {
		switch text[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				start = i
			} else {
				depth--
			}
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return "", 0, 0, false
	}

	depth = 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], start, i + 1, true
			}
		}
	}
	return "", 0, 0, false
}

// RedactTicketIDs replaces ticket-shaped tokens with a fixed marker. Applied
// unconditionally to all visible text; running it twice is a no-op.
func RedactTicketIDs(text string) string {
	return ticketIDPattern.ReplaceAllString(text, redactionMarker)
}
