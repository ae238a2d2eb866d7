// Package events broadcasts descriptive assistant events — status changes
// and chat messages — to UI and logging collaborators. Emission is
// fire-and-forget: subscribers run synchronously and must be fast. A
// headless embedding simply registers no subscribers.
package events

import "sync"

// State names the assistant's externally visible activity.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

// Status describes an assistant state change for display.
type Status struct {
	Text  string
	State State
}

// Message is a chat line exchanged between the user and the assistant.
type Message struct {
	Sender   string
	Text     string
	FromUser bool
}

// Emitter fans events out to registered subscribers. Safe for concurrent
// use. The zero value emits to nobody.
type Emitter struct {
	mu          sync.RWMutex
	statusSubs  []func(Status)
	messageSubs []func(Message)
}

// NewEmitter returns a ready Emitter.
func NewEmitter() *Emitter { return &Emitter{} }

// SubscribeStatus registers fn for status events.
func (e *Emitter) SubscribeStatus(fn func(Status)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusSubs = append(e.statusSubs, fn)
}

// SubscribeMessage registers fn for chat-message events.
func (e *Emitter) SubscribeMessage(fn func(Message)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messageSubs = append(e.messageSubs, fn)
}

// Status emits a status event.
func (e *Emitter) Status(text string, state State) {
	e.mu.RLock()
	subs := e.statusSubs
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(Status{Text: text, State: state})
	}
}

// Message emits a chat-message event.
func (e *Emitter) Message(sender, text string, fromUser bool) {
	e.mu.RLock()
	subs := e.messageSubs
	e.mu.RUnlock()
	for _, fn := range subs {
		fn(Message{Sender: sender, Text: text, FromUser: fromUser})
	}
}
