// Command ghost is the desktop voice assistant entry point. It runs the
// intent recognition core against console input; real speech capture and
// synthesis plug in through the app package's Capture and Speaker
// interfaces.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"

	"github.com/ghost-assistant/ghost/internal/app"
	"github.com/ghost-assistant/ghost/internal/config"
	"github.com/ghost-assistant/ghost/internal/observe"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "ghost.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Local overrides (paths, listen address) may live in a .env file next
	// to the binary. A missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "ghost: load .env: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "ghost: %v\n", err)
			return 1
		}
		cfg = config.Default()
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.Level(),
	}))
	slog.SetDefault(logger)

	slog.Info("ghost starting",
		"config", *configPath,
		"database", cfg.Store.DatabasePath,
		"model", cfg.Store.ModelPath,
		"listen_addr", cfg.Server.ListenAddr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "ghost"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metric instruments", "err", err)
		return 1
	}

	application, err := app.New(ctx, cfg,
		app.WithCapture(newConsoleCapture(os.Stdin, cfg.Assistant.Hotword)),
		app.WithSpeaker(consoleSpeaker{out: os.Stdout, name: cfg.Assistant.Name}),
		app.WithMetrics(metrics),
	)
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	slog.Info("ready — type input, say the hotword to activate, Ctrl+C to quit",
		"hotword", cfg.Assistant.Hotword)

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// consoleCapture turns stdin lines into utterances. A line consisting only of
// the hotword is a bare activation; anything else is a command.
type consoleCapture struct {
	scanner *bufio.Scanner
	hotword string
}

func newConsoleCapture(r io.Reader, hotword string) *consoleCapture {
	return &consoleCapture{
		scanner: bufio.NewScanner(r),
		hotword: hotword,
	}
}

// Listen reads the next line. It does not unblock on ctx cancellation while
// stdin is open; the surrounding process exits on signal regardless.
func (c *consoleCapture) Listen(ctx context.Context) (app.Utterance, error) {
	if err := ctx.Err(); err != nil {
		return app.Utterance{}, err
	}
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return app.Utterance{}, fmt.Errorf("read stdin: %w", err)
		}
		return app.Utterance{}, io.EOF
	}

	line := strings.TrimSpace(c.scanner.Text())
	if strings.EqualFold(line, c.hotword) {
		return app.Utterance{Hotword: true}, nil
	}
	return app.Utterance{Text: line}, nil
}

// consoleSpeaker prints replies to stdout in place of speech synthesis.
type consoleSpeaker struct {
	out  io.Writer
	name string
}

func (s consoleSpeaker) Speak(_ context.Context, text string) error {
	_, err := fmt.Fprintf(s.out, "%s: %s\n", s.name, text)
	return err
}
