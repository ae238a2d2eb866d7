// Package entity extracts structured entities from raw utterances once an
// intent label is known. Extraction is deterministic and per-label: a
// location for weather queries, a search phrase for information queries, a
// self-reference target for system questions.
package entity

import (
	"regexp"
	"strings"

	"github.com/ghost-assistant/ghost/internal/intent"
)

var (
	// locationPattern captures the phrase after a trailing preposition, e.g.
	// "weather in London please" → "london". Politeness suffixes are ignored.
	locationPattern = regexp.MustCompile(`\b(?:in|at|for|near|around)\s+([\w\s]+?)(?:\s+(?:please|thanks|thank you|now))?$`)

	// capitalizedRun matches runs of capitalised words ("New York",
	// "Paudi Garhwal") as a best-effort location heuristic. It is prone to
	// false positives on arbitrary proper nouns and is used only when the
	// preposition pattern finds nothing.
	capitalizedRun = regexp.MustCompile(`\b[A-Z][a-zA-Z]*(?:\s[A-Z][a-zA-Z]*)*\b`)

	// infoPattern captures the subject of an information query.
	infoPattern = regexp.MustCompile(`(?i)(?:who is|what is|where is|how does|find|show me|tell me about)\s+(.+)`)
)

// locationStopWords rejects single-word preposition matches that are not
// places.
var locationStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true,
	"it": true, "today": true, "tomorrow": true,
}

// heuristicStopWords filters capitalised runs that are query vocabulary
// rather than places.
var heuristicStopWords = map[string]bool{
	"today": true, "tomorrow": true, "weather": true,
	"forecast": true, "temperature": true,
}

// selfReferential lists extracted info subjects that should be answered
// locally instead of searched for.
var selfReferential = map[string]bool{
	"your name": true, "who created you": true, "who made you": true,
}

// Resolve maps a label and the raw utterance to the final (label, entity,
// display type) triple. The label may be confirmed by the resolver but is
// never overridden to a different intent. An empty entity means none was
// extracted.
func Resolve(label intent.Label, raw string) (intent.Label, string, string) {
	switch label {
	case intent.GetTime:
		return label, "", intent.TypeTime
	case intent.GetWeather:
		return label, Location(raw), intent.TypeWeather
	case intent.SystemInfo:
		return label, systemTarget(raw), intent.TypeSystem
	case intent.Greeting:
		return label, "", intent.TypeGreeting
	case intent.Exit:
		return label, "terminate", intent.TypeExit
	case intent.GetInfo:
		return label, infoSubject(raw), intent.TypeInfo
	default:
		return label, "", intent.TypeUnknown
	}
}

// Location extracts a place name from text. It first looks for an explicit
// "in/at/for/near/around <phrase>" pattern anchored near the end of the
// utterance, then falls back to capitalised-word runs. Returns the empty
// string when neither yields a candidate.
func Location(text string) string {
	if m := locationPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		loc := strings.TrimSpace(m[1])
		if words := strings.Fields(loc); len(words) == 1 && locationStopWords[words[0]] {
			return ""
		}
		return loc
	}

	runs := capitalizedRun.FindAllString(text, -1)
	var kept []string
	for _, run := range runs {
		if !heuristicStopWords[strings.ToLower(run)] {
			kept = append(kept, run)
		}
	}
	return strings.Join(kept, " ")
}

// systemTarget classifies which aspect of the assistant a system question is
// about: its name, its creator, or its capabilities.
func systemTarget(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "what is your name"):
		return "your name"
	case strings.Contains(lower, "who created you"), strings.Contains(lower, "who made you"):
		return "creator"
	case strings.Contains(lower, "what can you do"), strings.Contains(lower, "your purpose"):
		return "capabilities"
	}
	return ""
}

// infoSubject extracts the subject following a query starter such as
// "who is" or "tell me about". Leading articles and a trailing question mark
// are stripped. Self-referential subjects are suppressed so the caller can
// answer locally instead of searching.
func infoSubject(raw string) string {
	m := infoPattern.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	subject := strings.TrimSpace(m[1])
	subject = strings.TrimSpace(strings.TrimSuffix(subject, "?"))

	lower := strings.ToLower(subject)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			subject = strings.Join(strings.Fields(subject)[1:], " ")
			break
		}
	}

	if selfReferential[strings.ToLower(subject)] {
		return ""
	}
	return subject
}
