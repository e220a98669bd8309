// Package intent classifies raw user messages into a handling path. The
// classification is rule based: an ordered list of keyword/regex predicates
// where earlier rules take precedence. It is memoryless per call; conversation
// history never influences the outcome.
package intent

import (
	"regexp"
	"strings"
)

// Kind is the resolved handling path for a message.
type Kind int

const (
	// OutOfScope means the message failed the domain check or hit the
	// privacy blocklist. It always resolves to the fixed fallback answer.
	OutOfScope Kind = iota
	// Lookup means the message references a ticket ID and should resolve it
	// against the tickets table.
	Lookup
	// Analytics means the message asks an aggregation question answered by a
	// generated SQL query.
	Analytics
	// Chart means the message asks for a visualization over retrieved
	// knowledge rather than over tabular data.
	Chart
	// Knowledge is the default: semantic search over the knowledge base.
	Knowledge
)

func (k Kind) String() string {
	switch k {
	case OutOfScope:
		return "out_of_scope"
	case Lookup:
		return "lookup"
	case Analytics:
		return "analytics"
	case Chart:
		return "chart"
	case Knowledge:
		return "knowledge"
	}
	return "unknown"
}

// Result is the raw classification of a single message.
type Result struct {
	InDomain          bool
	WantsChart        bool
	WantsAnalytics    bool
	WantsTicketLookup bool
	TicketID          string
}

var (
	domainKeywords = []string{
		"city", "municipal", "rancho", "cordova", "permit", "license",
		"trash", "garbage", "recycling", "water", "sewer", "street",
		"road", "park", "library", "ticket", "request", "service",
		"energy", "electric", "electricity", "power", "solar", "meter",
		"usage", "bill", "billing", "rate", "outage", "utility", "utilities",
		"payment", "pothole", "tree", "noise", "animal", "code enforcement",
		"event", "council", "mayor", "office", "department", "hours",
	}

	// Privacy terms dominate the domain check. A message mentioning any of
	// these is rejected even when it is otherwise in domain.
	privacyKeywords = []string{
		"ssn", "social security", "credit card", "bank account",
		"account number", "password", "date of birth", "driver's license",
		"drivers license", "my bill", "my account", "my balance",
		"my payment", "my address", "my phone", "neighbor's", "neighbors'",
		"someone else's", "personal information", "home address of",
		"phone number of",
	}

	chartKeywords = []string{
		"chart", "graph", "plot", "trend", "visualize", "visualization",
		"pie", "bar chart", "line chart", "doughnut", "compare", "comparison",
		"over time", "breakdown", "distribution",
	}

	analyticsKeywords = []string{
		"count", "how many", "average", "avg", "total", "sum", "usage",
		"consumption", "statistics", "stats", "median", "maximum", "minimum",
		"highest", "lowest", "per month", "per day", "monthly", "daily",
		"kwh", "readings", "resolved", "open tickets",
	}

	// Vector-override terms beat the analytics set: "how to reduce usage"
	// must route to knowledge lookup even though "usage" is an analytics
	// keyword. Ambiguity resolves toward semantic search, never toward
	// fabricated SQL.
	vectorOverrideKeywords = []string{
		"how do i", "how to", "how can i", "what is the process",
		"apply", "policy", "policies", "rule", "regulation", "tip", "tips",
		"advice", "reduce", "save", "lower", "contact", "phone", "email",
		"who do i", "where do i", "where can i", "when is", "hours",
		"schedule an", "sign up", "register",
	}

	ticketIDPattern = regexp.MustCompile(`\b[A-Z]{2}\d+\b`)
)

// Classify runs the predicate rules over a single message.
func Classify(message string) Result {
	lower := strings.ToLower(message)

	res := Result{
		InDomain:       containsAny(lower, domainKeywords) && !containsAny(lower, privacyKeywords),
		WantsChart:     containsAny(lower, chartKeywords),
		WantsAnalytics: containsAny(lower, analyticsKeywords) && !containsAny(lower, vectorOverrideKeywords),
	}
	if id := ticketIDPattern.FindString(message); id != "" {
		res.WantsTicketLookup = true
		res.TicketID = id
	}
	return res
}

// Route collapses the independent flags into a single handling path. Rule
// order is the precedence order.
func (r Result) Route() Kind {
	switch {
	case !r.InDomain:
		return OutOfScope
	case r.WantsTicketLookup:
		return Lookup
	case r.WantsAnalytics:
		return Analytics
	case r.WantsChart:
		return Chart
	default:
		return Knowledge
	}
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
