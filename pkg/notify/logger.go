package notify

import "io"

// Logger is the leveled, printf-style logger handed to core services.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// WriterLogger writes Logger calls as notify messages.
type WriterLogger struct {
	writer  io.Writer
	verbose bool
}

// NewLogger returns a Logger writing to writer. Debug messages are only written
// when verbose is true.
func NewLogger(writer io.Writer, verbose bool) *WriterLogger {
	return &WriterLogger{writer: writer, verbose: verbose}
}

// Discard returns a Logger that drops every message.
func Discard() *WriterLogger {
	return &WriterLogger{writer: io.Discard}
}

// Writer returns the underlying writer.
func (l *WriterLogger) Writer() io.Writer {
	return l.writer
}

// Debugf writes a debug message when verbose output is enabled.
func (l *WriterLogger) Debugf(format string, args ...any) {
	if l.verbose {
		Debugf(l.writer, format, args...)
	}
}

// Infof writes an informational message.
func (l *WriterLogger) Infof(format string, args ...any) {
	Infof(l.writer, format, args...)
}

// Warnf writes a warning message.
func (l *WriterLogger) Warnf(format string, args ...any) {
	Warningf(l.writer, format, args...)
}

// Errorf writes an error message.
func (l *WriterLogger) Errorf(format string, args ...any) {
	Errorf(l.writer, format, args...)
}
