package log

// Logger receives protocol events from the accessory database. Log is called
// with the database unlocked but on the request path, so implementations must
// be safe for concurrent use and should not block.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. Its zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger fans events out to several loggers, typically a SlogAdapter for
// the console and a FileLogger for later analysis.
type MultiLogger []Logger

// NewMultiLogger creates a MultiLogger. Nil loggers are dropped.
func NewMultiLogger(loggers ...Logger) MultiLogger {
	m := make(MultiLogger, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

// Log sends the event to every logger in order.
func (m MultiLogger) Log(event Event) {
	for _, l := range m {
		l.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = MultiLogger(nil)
	_ Logger = (*FileLogger)(nil)
	_ Logger = (*SlogAdapter)(nil)
)
