// Package dispatch maps recognised intent labels to executable actions.
//
// The recognition core only emits labels from its taxonomy; what a label
// does lives here, in a keyed lookup table external to the core. Embeddings
// extend the registry with OS-automation handlers (open_*, close_*,
// media_*, browser_*); this package itself ships only the assistant's local
// conversational actions and never touches the operating system.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ghost-assistant/ghost/internal/intent"
)

// ErrNoAction is returned by Dispatch when no action is registered for the
// result's intent label.
var ErrNoAction = errors.New("dispatch: no action registered for intent")

// Action executes the behaviour behind an intent label and returns the
// sentence to speak back to the user.
type Action struct {
	// Name identifies the action in logs.
	Name string

	// Handle runs the action. The recognition result carries the entity
	// argument, when one was extracted.
	Handle func(ctx context.Context, res intent.Result) (string, error)
}

// Registry is a concurrent label → action table.
type Registry struct {
	mu      sync.RWMutex
	actions map[intent.Label]Action
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[intent.Label]Action)}
}

// Register binds an action to a label, replacing any previous binding.
func (r *Registry) Register(label intent.Label, action Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[label] = action
}

// Lookup returns the action bound to label.
func (r *Registry) Lookup(label intent.Label) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	action, ok := r.actions[label]
	return action, ok
}

// Dispatch runs the action bound to the result's intent label.
func (r *Registry) Dispatch(ctx context.Context, res intent.Result) (string, error) {
	action, ok := r.Lookup(res.Intent)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNoAction, res.Intent)
	}
	reply, err := action.Handle(ctx, res)
	if err != nil {
		return "", fmt.Errorf("dispatch: action %q: %w", action.Name, err)
	}
	return reply, nil
}

// Builtin returns a registry preloaded with the assistant's local
// conversational actions. assistantName is used in self-description
// answers.
func Builtin(assistantName string) *Registry {
	r := NewRegistry()

	r.Register(intent.Greeting, Action{
		Name: "respond_to_greeting",
		Handle: func(context.Context, intent.Result) (string, error) {
			return pick("Hello! How can I assist you?", "Hi there!", "Greetings!"), nil
		},
	})

	r.Register(intent.GetTime, Action{
		Name: "tell_time",
		Handle: func(context.Context, intent.Result) (string, error) {
			return time.Now().Format("It is 3:04 PM."), nil
		},
	})

	r.Register(intent.SystemInfo, Action{
		Name: "describe_self",
		Handle: func(_ context.Context, res intent.Result) (string, error) {
			switch res.Entity {
			case "your name":
				return fmt.Sprintf("My name is %s.", assistantName), nil
			case "creator":
				return "I was created by a human developer. My code is open source.", nil
			case "capabilities":
				return "I can help you with system commands, web searches, media control, and more.", nil
			}
			return "I am a virtual assistant designed to help you with various tasks.", nil
		},
	})

	r.Register(intent.Exit, Action{
		Name: "say_goodbye",
		Handle: func(context.Context, intent.Result) (string, error) {
			return pick("Goodbye!", "See you later!", "Shutting down."), nil
		},
	})

	r.Register(intent.GetWeather, Action{
		Name: "weather_placeholder",
		Handle: func(_ context.Context, res intent.Result) (string, error) {
			if res.Entity != "" {
				return fmt.Sprintf("I would look up the weather for %s, but no weather action is installed.", res.Entity), nil
			}
			return "I would look up the weather, but no weather action is installed.", nil
		},
	})

	r.Register(intent.GetInfo, Action{
		Name: "info_placeholder",
		Handle: func(_ context.Context, res intent.Result) (string, error) {
			if res.Entity != "" {
				return fmt.Sprintf("I would search for %q, but no search action is installed.", res.Entity), nil
			}
			return "What would you like to know about?", nil
		},
	})

	r.Register(intent.Unknown, Action{
		Name: "admit_confusion",
		Handle: func(context.Context, intent.Result) (string, error) {
			return "I'm not sure how to help with that yet. You can teach me with feedback.", nil
		},
	})

	return r
}

// pick returns one of the given phrases at random, so repeated interactions
// do not sound canned.
func pick(phrases ...string) string {
	return phrases[rand.IntN(len(phrases))]
}
