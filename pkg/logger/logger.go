// Package logger defines the logging contract used across tradechart.
package logger

// Level is the severity threshold of a Logger.
type Level int8

const (
	Disabled   Level = -1   // Disabled turns logging off.
	TraceLevel Level = iota // TraceLevel logs per-series drawing details.
	DebugLevel              // DebugLevel logs planned limits and ticks.
	InfoLevel               // InfoLevel logs rendered figures and downloads.
	WarnLevel               // WarnLevel logs skipped data (missing columns, gaps).
	ErrorLevel              // ErrorLevel logs failed operations.
	FatalLevel              // FatalLevel logs and exits the program.
	PanicLevel              // PanicLevel logs and panics.
	NoLevel                 // NoLevel logs without a level.
)

// Logger is implemented by pkg/logger/zerolog. Keeping the interface here
// lets drawing and storage code log without importing zerolog.
type Logger interface {
	WithField(key string, value any) Logger
	WithFields(fields map[string]any) Logger
	WithError(err error) Logger

	Print(args ...any)
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)
	Panic(args ...any)

	Printf(format string, args ...any)
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Fatalf(format string, args ...any)
	Panicf(format string, args ...any)

	SetLevel(level Level)
	GetLevel() Level
}
