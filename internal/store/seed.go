package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ghost-assistant/ghost/internal/intent"
)

// seedExamples is the fixed first-run training set. Texts are normalised on
// insertion, so they may be written here in natural phrasing.
var seedExamples = []struct {
	text  string
	label intent.Label
}{
	{"what time is it now", intent.GetTime},
	{"current time", intent.GetTime},
	{"what's the current time", intent.GetTime},
	{"tell me the time", intent.GetTime},
	{"what's the time", intent.GetTime},

	{"hello there", intent.Greeting},
	{"hi", intent.Greeting},
	{"hey", intent.Greeting},
	{"howdy", intent.Greeting},
	{"good morning", intent.Greeting},
	{"good afternoon", intent.Greeting},
	{"good evening", intent.Greeting},

	{"what's the weather in London", intent.GetWeather},
	{"tell me the temperature", intent.GetWeather},
	{"how's the weather looking today", intent.GetWeather},
	{"will it rain tomorrow in Paris", intent.GetWeather},
	{"weather in Delhi", intent.GetWeather},
	{"temperature in Mumbai", intent.GetWeather},
	{"is it sunny in New York", intent.GetWeather},
	{"weather for the whole week", intent.GetWeather},
	{"how is the weather today", intent.GetWeather},
	{"weather", intent.GetWeather},

	{"who made you", intent.SystemInfo},
	{"what can you do", intent.SystemInfo},
	{"tell me about yourself", intent.SystemInfo},
	{"what is your purpose", intent.SystemInfo},
	{"what is your name", intent.SystemInfo},
	{"who created you", intent.SystemInfo},
	{"about yourself", intent.SystemInfo},

	{"exit the program", intent.Exit},
	{"stop listening", intent.Exit},
	{"terminate program", intent.Exit},
	{"goodbye", intent.Exit},
	{"go to sleep", intent.Exit},
	{"shut down", intent.Exit},
	{"I am done", intent.Exit},
	{"you can stop now", intent.Exit},
	{"quit", intent.Exit},

	{"who is Albert Einstein", intent.GetInfo},
	{"what is the capital of France", intent.GetInfo},
	{"where is the Eiffel Tower", intent.GetInfo},
	{"how does a volcano erupt", intent.GetInfo},
	{"find information about gravity", intent.GetInfo},
	{"show me facts about space", intent.GetInfo},
	{"tell me about artificial intelligence", intent.GetInfo},
	{"who is the president of India", intent.GetInfo},
	{"what is quantum computing", intent.GetInfo},
}

// Seed inserts the initial example set when training_data is empty and
// returns the number of rows inserted. A store that already contains
// examples is left untouched, so repeated startups never duplicate the seed.
func (s *Store) Seed(ctx context.Context) (int, error) {
	count, err := s.CountExamples(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	inserted := 0
	for _, seed := range seedExamples {
		norm := intent.Normalize(seed.text)
		if norm == "" {
			slog.Warn("skipping seed example that normalises to empty", "text", seed.text)
			continue
		}
		if err := s.AddExample(ctx, norm, seed.label, intent.SourceInitial); err != nil {
			return inserted, fmt.Errorf("store: seed %q: %w", seed.text, err)
		}
		inserted++
	}
	return inserted, nil
}
