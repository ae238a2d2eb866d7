package events_test

import (
	"testing"

	"github.com/ghost-assistant/ghost/internal/events"
)

func TestEmitterDelivery(t *testing.T) {
	e := events.NewEmitter()

	var statuses []events.Status
	var messages []events.Message
	e.SubscribeStatus(func(s events.Status) { statuses = append(statuses, s) })
	e.SubscribeMessage(func(m events.Message) { messages = append(messages, m) })

	e.Status("Listening…", events.StateListening)
	e.Message("You", "hello", true)
	e.Message("Ghost", "Hi there!", false)

	if len(statuses) != 1 || statuses[0].State != events.StateListening {
		t.Errorf("statuses = %+v, want one listening event", statuses)
	}
	if len(messages) != 2 || !messages[0].FromUser || messages[1].FromUser {
		t.Errorf("messages = %+v, want user then assistant", messages)
	}
}

func TestZeroEmitterIsSafe(t *testing.T) {
	var e events.Emitter
	e.Status("idle", events.StateIdle)
	e.Message("Ghost", "nobody listening", false)
}
