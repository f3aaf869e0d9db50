package store

// DispatchEvent describes a fault observed while fanning out a transition:
// either a recovered subscriber panic or an activity emission failure.
type DispatchEvent struct {
	Store      string
	Seq        uint64
	Subscriber int
	Recovered  any
	Err        error
}

// DispatchLogger records dispatch faults.
type DispatchLogger interface {
	LogDispatch(DispatchEvent)
}

// DispatchLoggerFunc adapts a function to DispatchLogger.
type DispatchLoggerFunc func(DispatchEvent)

// LogDispatch implements DispatchLogger.
func (f DispatchLoggerFunc) LogDispatch(event DispatchEvent) {
	if f != nil {
		f(event)
	}
}

type noopDispatchLogger struct{}

func (noopDispatchLogger) LogDispatch(DispatchEvent) {}

// WithDispatchLogger attaches a dispatch logger to the store.
func WithDispatchLogger(logger DispatchLogger) Option {
	return func(cfg *config) {
		if logger == nil {
			cfg.dispatchLogger = noopDispatchLogger{}
			return
		}
		cfg.dispatchLogger = logger
	}
}
