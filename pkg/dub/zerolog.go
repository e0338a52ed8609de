package dub

import "github.com/rs/zerolog"

// ZerologLogger adapts a zerolog.Logger to the Logger interface. This is
// the default, non-no-op backend: every package still only depends on
// Logger, but real runs get structured, leveled output instead of
// log.Printf.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger.
func NewZerologLogger(l zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: l}
}

func (z *ZerologLogger) Debug(msg string, kv ...any) { z.event(z.log.Debug(), msg, kv) }
func (z *ZerologLogger) Info(msg string, kv ...any)  { z.event(z.log.Info(), msg, kv) }
func (z *ZerologLogger) Warn(msg string, kv ...any)  { z.event(z.log.Warn(), msg, kv) }
func (z *ZerologLogger) Error(msg string, kv ...any) { z.event(z.log.Error(), msg, kv) }

// event attaches kv as alternating key/value pairs and fires msg. A
// trailing odd key without a value is logged as a bare field with an
// "(MISSING)" value rather than dropped or panicking.
func (z *ZerologLogger) event(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		if i+1 >= len(kv) {
			e = e.Str(key, "(MISSING)")
			break
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
