// Package app wires the assistant subsystems into a running application.
//
// The App struct owns the full lifecycle: New opens the store, restores the
// persisted classifier model and bootstraps the recognition service; Run
// executes the conversation loop next to the local observability endpoint;
// Shutdown tears everything down in order.
//
// Speech input and output are injected via [Capture] and [Speaker] so the
// same core runs against a console, a test script, or a real microphone
// pipeline.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ghost-assistant/ghost/internal/config"
	"github.com/ghost-assistant/ghost/internal/dispatch"
	"github.com/ghost-assistant/ghost/internal/events"
	"github.com/ghost-assistant/ghost/internal/health"
	"github.com/ghost-assistant/ghost/internal/intent"
	"github.com/ghost-assistant/ghost/internal/intent/classify"
	"github.com/ghost-assistant/ghost/internal/observe"
	"github.com/ghost-assistant/ghost/internal/recognizer"
	"github.com/ghost-assistant/ghost/internal/store"
)

// Utterance is one unit of user input delivered by a [Capture].
type Utterance struct {
	// Text is the transcribed or typed input. May be empty for a bare
	// hotword activation.
	Text string

	// Hotword marks an activation without a command.
	Hotword bool
}

// Capture delivers user utterances. Listen blocks until input arrives, ctx is
// cancelled, or the input source ends; it returns io.EOF when the source is
// exhausted.
type Capture interface {
	Listen(ctx context.Context) (Utterance, error)
}

// Speaker renders assistant replies to the user.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	store   *store.Store
	clf     *classify.Classifier
	recog   *recognizer.Service
	actions *dispatch.Registry
	events  *events.Emitter
	metrics *observe.Metrics

	capture Capture
	speaker Speaker

	httpSrv *http.Server

	// closers are called in order during Shutdown.
	closers []func() error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithCapture injects the input source. Without it Run serves only the
// observability endpoint.
func WithCapture(c Capture) Option {
	return func(a *App) { a.capture = c }
}

// WithSpeaker injects the output sink. Without it replies are only emitted as
// UI events.
func WithSpeaker(s Speaker) Option {
	return func(a *App) { a.speaker = s }
}

// WithActions injects an action registry instead of the builtin one.
func WithActions(r *dispatch.Registry) Option {
	return func(a *App) { a.actions = r }
}

// WithMetrics attaches metric instruments to the recognition pipeline.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together: it opens the SQLite
// example store, restores the persisted classifier model when one exists, and
// bootstraps the recognition service (seeding plus initial training).
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		events: events.NewEmitter(),
	}
	for _, o := range opts {
		o(a)
	}

	st, err := store.Open(ctx, cfg.Store.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("app: open store: %w", err)
	}
	a.store = st
	a.closers = append(a.closers, st.Close)

	a.clf = classify.New(cfg.Store.ModelPath, cfg.Recognizer.MinSamplesPerClass)
	if err := a.clf.Load(); err != nil {
		slog.Warn("could not restore persisted model, starting untrained", "err", err)
	}

	a.recog = recognizer.New(st, a.clf,
		recognizer.WithConfidenceThreshold(cfg.Recognizer.ConfidenceThreshold),
		recognizer.WithUncertaintyThreshold(cfg.Recognizer.UncertaintyThreshold),
		recognizer.WithMetrics(a.metrics),
	)
	if err := a.recog.Bootstrap(ctx); err != nil {
		a.store.Close()
		return nil, fmt.Errorf("app: bootstrap recognizer: %w", err)
	}

	if a.actions == nil {
		a.actions = dispatch.Builtin(cfg.Assistant.Name)
	}

	a.initHTTP()
	return a, nil
}

// Recognizer exposes the recognition service, e.g. for a feedback UI.
func (a *App) Recognizer() *recognizer.Service { return a.recog }

// Events exposes the UI event emitter for subscription before Run.
func (a *App) Events() *events.Emitter { return a.events }

// initHTTP builds the local observability server. An empty listen address
// disables it.
func (a *App) initHTTP() {
	if a.cfg.Server.ListenAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(
		health.Checker{Name: "store", Check: a.store.Ping},
		health.Checker{Name: "model", Check: func(context.Context) error {
			if !a.recog.Trained() {
				return errors.New("classifier not trained")
			}
			return nil
		}},
	).Register(mux)

	a.httpSrv = &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Run executes the conversation loop and, when configured, the observability
// endpoint. It blocks until ctx is cancelled, the input source ends, or the
// user asks the assistant to exit.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		g.Go(func() error {
			slog.Info("observability endpoint listening", "addr", a.httpSrv.Addr)
			if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("app: http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutCancel()
			return a.httpSrv.Shutdown(shutCtx)
		})
	}

	g.Go(func() error {
		// Ending the conversation stops the http server as well.
		defer cancel()
		return a.conversationLoop(ctx)
	})

	return g.Wait()
}

// conversationLoop drives capture → recognition → action → speech until the
// source ends or an exit intent is handled.
func (a *App) conversationLoop(ctx context.Context) error {
	if a.capture == nil {
		<-ctx.Done()
		return ctx.Err()
	}

	a.events.Status("Waiting for hotword", events.StateIdle)
	for {
		utt, err := a.capture.Listen(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			observe.Logger(ctx).Warn("capture error", "err", err)
			continue
		}

		if utt.Hotword && strings.TrimSpace(utt.Text) == "" {
			a.say(ctx, "Yes? How may I help you?")
			a.events.Status("Listening", events.StateListening)
			continue
		}
		if strings.TrimSpace(utt.Text) == "" {
			continue
		}

		a.events.Message("You", utt.Text, true)
		a.events.Status("Processing", events.StateProcessing)

		res := a.recog.Recognize(ctx, utt.Text)
		reply, err := a.actions.Dispatch(ctx, res)
		if err != nil {
			observe.Logger(ctx).Warn("dispatch failed", "intent", res.Intent, "err", err)
			reply = "Sorry, I can't do that yet."
		}
		a.say(ctx, reply)
		a.events.Status("Waiting for hotword", events.StateIdle)

		if res.Intent == intent.Exit {
			return nil
		}
	}
}

// say emits the reply as a UI event and renders it through the speaker.
// Speech failures are logged, not fatal: the reply already reached the UI.
func (a *App) say(ctx context.Context, text string) {
	a.events.Message(a.cfg.Assistant.Name, text, false)
	a.events.Status("Speaking", events.StateSpeaking)
	if a.speaker == nil {
		return
	}
	if err := a.speaker.Speak(ctx, text); err != nil {
		observe.Logger(ctx).Warn("speech output failed", "err", err)
	}
}

// Shutdown tears down all subsystems in reverse-init order. Safe to call more
// than once.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		if a.httpSrv != nil {
			if err := a.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("http shutdown error", "err", err)
			}
		}
		for i, closer := range a.closers {
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
				shutdownErr = errors.Join(shutdownErr, err)
			}
		}
	})
	return shutdownErr
}
