package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/angelmondragon/forno-backend/pkg/env"
	"github.com/rs/zerolog"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
	// Fields are attached to every entry, e.g. the instance id.
	Fields map[string]any
	// Redact adds field keys to the default customer data mask.
	Redact []string
}

type Logger struct {
	base      *zerolog.Logger
	warnStack bool
	redact    map[string]struct{}
}

// Customer contact and address fields never reach the log sink in clear text.
var defaultRedactedKeys = []string{
	"customer_phone", "phone", "whatsapp",
	"address", "street", "number", "complement", "reference",
}

const redactedValue = "[redacted]"

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}

	var output io.Writer = opts.Output
	if output == nil {
		output = os.Stdout
	}
	if env.Get("LOG_FORMAT", "json") == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05",
			NoColor:    env.GetBool("LOG_NO_COLOR", false),
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	l := &Logger{
		warnStack: opts.WarnStack,
		redact:    map[string]struct{}{},
	}
	for _, key := range append(defaultRedactedKeys, opts.Redact...) {
		l.redact[strings.ToLower(strings.TrimSpace(key))] = struct{}{}
	}

	builder := zerolog.New(output).With().Timestamp().Str("service", opts.ServiceName)
	for _, key := range sortedKeys(opts.Fields) {
		builder = builder.Interface(key, l.scrub(key, opts.Fields[key]))
	}
	base := builder.Logger().Level(opts.Level)
	l.base = &base
	return l
}

// Nop returns a logger that discards everything. Handy for tests and optional wiring.
func Nop() *Logger {
	logger := zerolog.Nop()
	return &Logger{base: &logger}
}

func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}

func (l *Logger) loggerFromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return l.base
	}
	if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
		return entry
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, entry zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	entry := l.loggerFromContext(ctx)
	return l.attach(ctx, entry.With().Interface(key, l.scrub(key, value)).Logger())
}

// WithFields attaches fields in key order so entries are stable across runs.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	entry := l.loggerFromContext(ctx)
	builder := entry.With()
	for _, k := range sortedKeys(fields) {
		builder = builder.Interface(k, l.scrub(k, fields[k]))
	}
	return l.attach(ctx, builder.Logger())
}

// scrub masks values of customer data keys. Phone numbers keep their last
// four digits so support can still match a report to an order.
func (l *Logger) scrub(key string, value any) any {
	if l.redact == nil {
		return value
	}
	if _, ok := l.redact[strings.ToLower(key)]; !ok {
		return value
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return redactedValue
	}
	if strings.Contains(strings.ToLower(key), "phone") || key == "whatsapp" {
		digits := strings.Map(func(r rune) rune {
			if r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, s)
		if len(digits) > 4 {
			return "***" + digits[len(digits)-4:]
		}
	}
	return redactedValue
}

func sortedKeys(fields map[string]any) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	return l.WithField(ctx, "session_id", sessionID)
}

func (l *Logger) WithOrderRef(ctx context.Context, ref string) context.Context {
	return l.WithField(ctx, "order_ref", ref)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.loggerFromContext(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.loggerFromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.loggerFromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
