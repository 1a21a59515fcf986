package logger

// Logger is the logging surface every curator component accepts.
type Logger interface {
	Log(format string)
	Logf(format string, v ...any)

	Warn(format string)
	Warnf(format string, v ...any)

	Debug(format string)
	Debugf(format string, v ...any)

	Error(format string)
	Errorf(format string, v ...any)

	Fatal(format string)
	Fatalf(format string, v ...any)
}

// Nop drops everything. Used by tests and by callers that only want the
// progress sink.
type Nop struct{}

func (Nop) Log(string)            {}
func (Nop) Logf(string, ...any)   {}
func (Nop) Warn(string)           {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Debug(string)          {}
func (Nop) Debugf(string, ...any) {}
func (Nop) Error(string)          {}
func (Nop) Errorf(string, ...any) {}
func (Nop) Fatal(string)          {}
func (Nop) Fatalf(string, ...any) {}
