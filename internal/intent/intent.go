// Package intent defines the intent taxonomy and the shared value types of
// the Ghost recognition engine: labels, training example sources, and the
// recognition result returned to dispatchers.
package intent

// Label identifies a discrete category of user goal (e.g. get_weather).
//
// The core taxonomy below is fixed; embeddings may extend it with open-ended
// action labels such as open_notepad, close_chrome, media_play_pause or
// browser_new_tab. [Unknown] and [Error] are sentinels and never appear in
// the training store.
type Label string

const (
	Greeting   Label = "greeting"
	GetTime    Label = "get_time"
	GetWeather Label = "get_weather"
	SystemInfo Label = "system_info"
	Exit       Label = "exit"
	GetInfo    Label = "get_info"

	// Unknown is reported when neither the classifier nor the fallback
	// matcher produced a label.
	Unknown Label = "unknown"

	// Error is reserved for query-history rows written on internal failures.
	Error Label = "error"
)

// IsSentinel reports whether l is one of the reserved non-trainable labels.
func (l Label) IsSentinel() bool {
	return l == Unknown || l == Error
}

// Trainable reports whether l may be stored as a training label.
func (l Label) Trainable() bool {
	return l != "" && !l.IsSentinel()
}

// Source records how a training example entered the store.
type Source string

const (
	// SourceInitial marks examples inserted by the first-run seed.
	SourceInitial Source = "initial"

	// SourceUser marks examples added explicitly by the user.
	SourceUser Source = "user"

	// SourceFeedback marks examples created from corrected predictions.
	SourceFeedback Source = "user_feedback"
)

// IsValid reports whether s is a recognised example source.
func (s Source) IsValid() bool {
	switch s {
	case SourceInitial, SourceUser, SourceFeedback:
		return true
	}
	return false
}

// Display type labels attached to recognition results. They are used only
// for logging and UI branching, never for control decisions.
const (
	TypeUnknown    = "unknown"
	TypeGreeting   = "greeting"
	TypeTime       = "time_query"
	TypeWeather    = "weather_query"
	TypeSystem     = "system_query"
	TypeExit       = "exit_command"
	TypeInfo       = "information_query"
)

// Result is the value returned for every recognition call. Callers always
// receive a well-formed Result; degraded confidence or the [Unknown] label is
// the only visible signal of internal failure.
type Result struct {
	// Intent is the predicted label from the taxonomy.
	Intent Label

	// Entity parameterises the intent's action (a location, a search
	// phrase, ...). Empty when no entity was extracted.
	Entity string

	// Type is the human-facing subclass label for display purposes.
	Type string

	// Confidence is the calibrated probability, in [0,1], that Intent is
	// correct. Keyword-fallback matches report at least 0.8.
	Confidence float64
}
