package logger

import (
	"os"

	"socratic/internal/models"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured logging with the fields every
// component of the engine carries.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus setup. The JSON format keeps entries
// machine-parseable for downstream collection.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// ParseLevel converts a config level string into a logrus level, defaulting
// to info.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New creates a Logger preloaded with component and session identity.
func New(component, sessionID string) *Logger {
	return &Logger{
		entry: logrus.WithFields(logrus.Fields{
			"component":  component,
			"session_id": sessionID,
		}),
	}
}

// WithSession returns a Logger bound to a session id, keeping the component.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{entry: l.entry.WithField("session_id", sessionID)}
}

// WithRequest attaches HTTP request context to the entry.
func (l *Logger) WithRequest(req models.RequestInfo) *Logger {
	return &Logger{entry: l.entry.WithField("request_info", req)}
}

// WithError attaches structured error details to the entry.
func (l *Logger) WithError(err models.ErrorInfo) *Logger {
	return &Logger{entry: l.entry.WithField("error", err)}
}

// WithPayload attaches arbitrary business data to the entry.
func (l *Logger) WithPayload(payload map[string]interface{}) *Logger {
	return &Logger{entry: l.entry.WithField("payload", payload)}
}

// Info logs at info level.
func (l *Logger) Info(message string) { l.entry.Info(message) }

// Warn logs at warning level.
func (l *Logger) Warn(message string) { l.entry.Warn(message) }

// Error logs at error level.
func (l *Logger) Error(message string) { l.entry.Error(message) }

// Debug logs at debug level.
func (l *Logger) Debug(message string) { l.entry.Debug(message) }

// Fatal logs at fatal level and terminates the process.
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
