package internal

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Importance string

const (
	Info    Importance = " "
	Warning Importance = "?"
	Error   Importance = "!"
	Raw     Importance = "-"
)

type Logger struct {
	database  Database
	location  *time.Location
	debugMode bool
	console   zerolog.Logger
	writer    chan *LogEvent
}

type LogEvent struct {
	Importance Importance
	Message    *FeatureLogMessage
}

func NewLogger(location *time.Location) *Logger {
	if location == nil {
		location = time.UTC
	}
	logger := &Logger{
		debugMode: false,
		location:  location,
		console:   zerolog.New(os.Stderr).With().Timestamp().Logger(),
		writer:    make(chan *LogEvent, 100),
	}
	go logger.startWriter()
	return logger
}

func (l *Logger) startWriter() {
	for event := range l.writer {
		message := event.Message
		l.logLine(event.Importance, message)

		if l.database != nil {
			if err := l.database.WriteLogMessage(message); err != nil {
				l.console.Error().Err(err).Msg("write log to database failed")
			}
		}
	}
}

// SetDebugMode switches console output to the human-readable writer and enables raw data events.
func (l *Logger) SetDebugMode(debugMode bool) {
	l.debugMode = debugMode
	if debugMode {
		l.console = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}).With().Timestamp().Logger()
	}
}

func (l *Logger) SetDatabase(database Database) {
	l.database = database
}

func logTime(t time.Time) string {
	return t.Format(time.DateTime)
}

func (l *Logger) FeatureEvent(feature, id, text string) {
	l.logEvent(Info, l.newFeatureLogMessage(feature, id, text))
}

func (l *Logger) logEvent(importance Importance, message *FeatureLogMessage) {
	if message.SubjectId == "" {
		message.SubjectId = "*"
	}
	message.Importance = string(importance)
	l.writer <- &LogEvent{
		Importance: importance,
		Message:    message,
	}
}

func (l *Logger) Debug(text string) {
	l.logEvent(Info, l.newFeatureLogMessage("info", "", text))
}

func (l *Logger) Warn(text string) {
	l.logEvent(Warning, l.newFeatureLogMessage("warning", "", text))
}

func (l *Logger) Error(text string, err error) {
	l.logEvent(Error, l.newFeatureLogMessage("error", "", fmt.Sprintf("%s: %s", text, err)))
}

func (l *Logger) RawDataEvent(direction, data string) {
	if l.debugMode {
		l.logEvent(Raw, l.newFeatureLogMessage("raw", "", fmt.Sprintf("%s: %s", direction, data)))
	}
}

func (l *Logger) logLine(importance Importance, message *FeatureLogMessage) {
	var event *zerolog.Event
	switch importance {
	case Warning:
		event = l.console.Warn()
	case Error:
		event = l.console.Error()
	case Raw:
		event = l.console.Debug()
	default:
		// info lines go to the database only, unless there is none
		if l.database != nil && !l.debugMode {
			return
		}
		event = l.console.Info()
	}
	event.Str("feature", message.Feature).Str("id", message.SubjectId).Msg(message.Text)
}

func (l *Logger) newFeatureLogMessage(feature, id, text string) *FeatureLogMessage {
	now := time.Now()
	return &FeatureLogMessage{
		Time:      logTime(now.In(l.location)),
		TimeStamp: now.UTC(),
		Text:      text,
		Feature:   feature,
		SubjectId: id,
	}
}
