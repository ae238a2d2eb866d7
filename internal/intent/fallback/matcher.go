// Package fallback implements the deterministic keyword backstop used when
// the statistical classifier is absent, untrained, or under-confident.
package fallback

import (
	"strings"

	"github.com/ghost-assistant/ghost/internal/intent"
)

// MinConfidence is the confidence floor applied to fallback matches. A
// trigger hit is an exact keyword match rather than a statistical guess, so
// it is reported as high confidence.
const MinConfidence = 0.8

// Rule associates an intent label with the substrings that trigger it.
type Rule struct {
	Label    intent.Label
	Triggers []string
}

// Matcher scans utterances against an ordered rule list. Rules are evaluated
// in the order given; the first label whose trigger set contains a substring
// of the lower-cased input wins. The zero value matches nothing.
//
// Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	rules []Rule
}

// New creates a Matcher from the given rules. The rule slice is copied;
// enumeration order is preserved across calls.
func New(rules ...Rule) *Matcher {
	m := &Matcher{rules: make([]Rule, len(rules))}
	copy(m.rules, rules)
	return m
}

// Default returns a Matcher with the built-in trigger rules for the core
// taxonomy.
func Default() *Matcher {
	return New(
		Rule{Label: intent.Greeting, Triggers: []string{"hello", "hi", "hey"}},
		Rule{Label: intent.GetTime, Triggers: []string{"time", "clock", "what time"}},
		Rule{Label: intent.GetWeather, Triggers: []string{"weather", "forecast", "temperature"}},
		Rule{Label: intent.SystemInfo, Triggers: []string{"who made", "created", "what are you", "your name"}},
		Rule{Label: intent.Exit, Triggers: []string{"exit", "quit", "stop", "goodbye", "go to sleep", "shut down", "i am done", "you can stop now"}},
		Rule{Label: intent.GetInfo, Triggers: []string{"who is", "where is", "what is", "how", "find", "show me"}},
	)
}

// Match returns the first rule label triggered by raw, matching on the
// lower-cased input. The second return value is false when nothing matched.
func (m *Matcher) Match(raw string) (intent.Label, bool) {
	lower := strings.ToLower(raw)
	for _, rule := range m.rules {
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, trigger) {
				return rule.Label, true
			}
		}
	}
	return intent.Unknown, false
}
