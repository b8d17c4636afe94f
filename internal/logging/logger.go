package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the sinks of the process logger.
type Options struct {
	Level       string
	Format      string // "json" or "text"
	File        string
	SentryDSN   string
	Environment string
}

// New builds the process logger. Records go to stdout and, when configured,
// to a rotating file and to Sentry (errors only). The returned function
// flushes and closes the optional sinks.
func New(opts Options) (*slog.Logger, func(), error) {
	return newLogger(os.Stdout, opts)
}

func newLogger(stdout io.Writer, opts Options) (*slog.Logger, func(), error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(opts.Level))); err != nil {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level, AddSource: true}

	handlers := []slog.Handler{newHandler(stdout, opts.Format, handlerOpts)}
	var closers []func()

	if path := strings.TrimSpace(opts.File); path != "" {
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closers = append(closers, func() { _ = file.Close() })
	}

	if dsn := strings.TrimSpace(opts.SentryDSN); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: opts.Environment}); err != nil {
			return nil, nil, fmt.Errorf("init sentry: %w", err)
		}
		handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		closers = append(closers, func() { sentry.Flush(2 * time.Second) })
	}

	handler := handlers[0]
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	}

	cleanup := func() {
		for _, closeFn := range closers {
			closeFn()
		}
	}
	return slog.New(handler), cleanup, nil
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
