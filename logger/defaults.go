package logger

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var urlRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*:\/\/[a-zA-Z0-9+%/.\-:_?&=#@+~]+`)

// DefaultLogger writes through zerolog. Debug output is enabled by DEBUG=true
// or SetDebug; SAFE_LOGS=true redacts URLs, which usually carry provider
// credentials.
type DefaultLogger struct {
	zl    zerolog.Logger
	debug atomic.Bool
	safe  atomic.Bool
}

// Default logs to stderr; stdout is reserved for command output.
var Default = New(os.Stderr)

// New builds a console logger writing to w, reading DEBUG and SAFE_LOGS once.
func New(w io.Writer) *DefaultLogger {
	l := &DefaultLogger{
		zl: zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger(),
	}
	l.debug.Store(os.Getenv("DEBUG") == "true")
	l.safe.Store(os.Getenv("SAFE_LOGS") == "true")
	return l
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.debug.Store(enabled)
}

func (l *DefaultLogger) SetSafeLogs(enabled bool) {
	l.safe.Store(enabled)
}

func redact(text string) string {
	return urlRegex.ReplaceAllString(text, "[redacted url]")
}

func (l *DefaultLogger) render(format string, v ...any) string {
	msg := format
	if len(v) > 0 {
		msg = fmt.Sprintf(format, v...)
	}
	if l.safe.Load() {
		return redact(msg)
	}
	return msg
}

func (l *DefaultLogger) Log(format string) {
	l.zl.Info().Msg(l.render(format))
}

func (l *DefaultLogger) Logf(format string, v ...any) {
	l.zl.Info().Msg(l.render(format, v...))
}

func (l *DefaultLogger) Debug(format string) {
	if l.debug.Load() {
		l.zl.Debug().Msg(l.render(format))
	}
}

func (l *DefaultLogger) Debugf(format string, v ...any) {
	if l.debug.Load() {
		l.zl.Debug().Msg(l.render(format, v...))
	}
}

func (l *DefaultLogger) Error(format string) {
	l.zl.Error().Msg(l.render(format))
}

func (l *DefaultLogger) Errorf(format string, v ...any) {
	l.zl.Error().Msg(l.render(format, v...))
}

func (l *DefaultLogger) Warn(format string) {
	l.zl.Warn().Msg(l.render(format))
}

func (l *DefaultLogger) Warnf(format string, v ...any) {
	l.zl.Warn().Msg(l.render(format, v...))
}

func (l *DefaultLogger) Fatal(format string) {
	l.zl.Fatal().Msg(l.render(format))
}

func (l *DefaultLogger) Fatalf(format string, v ...any) {
	l.zl.Fatal().Msg(l.render(format, v...))
}
