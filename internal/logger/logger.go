package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"time"
)

// LogLevel controls which entries a Logger emits.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a configuration string to a LogLevel. Unknown values
// fall back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// LogEntry is the JSON shape written for every log line.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Component string                 `json:"component,omitempty"`
	Function  string                 `json:"function,omitempty"`
	File      string                 `json:"file,omitempty"`
	Line      int                    `json:"line,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Logger is a component-scoped structured logger. WithField/WithFields
// return copies, so a Logger can be shared across goroutines.
type Logger struct {
	level     LogLevel
	component string
	fields    map[string]interface{}
}

func NewLogger(component string) *Logger {
	return &Logger{
		level:     defaultLevel,
		component: component,
		fields:    make(map[string]interface{}),
	}
}

func (l *Logger) SetLevel(level LogLevel) {
	l.level = level
}

// WithField returns a copy of the logger with one extra context field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a copy of the logger with extra context fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	newLogger := &Logger{
		level:     l.level,
		component: l.component,
		fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
	}

	for k, v := range l.fields {
		newLogger.fields[k] = v
	}
	for k, v := range fields {
		newLogger.fields[k] = v
	}

	return newLogger
}

func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l
	}
	return l.WithField("error", err.Error())
}

func (l *Logger) log(level LogLevel, message string, err error) {
	if level < l.level {
		return
	}

	var funcName, fileName string
	var line int
	if pc, file, ln, ok := runtime.Caller(2); ok {
		line = ln
		parts := strings.Split(file, "/")
		fileName = parts[len(parts)-1]

		if fn := runtime.FuncForPC(pc); fn != nil {
			funcName = fn.Name()
			if idx := strings.LastIndex(funcName, "."); idx != -1 {
				funcName = funcName[idx+1:]
			}
		}
	}

	entry := LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   message,
		Component: l.component,
		Function:  funcName,
		File:      fileName,
		Line:      line,
		Fields:    l.fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	jsonBytes, jsonErr := json.Marshal(entry)
	if jsonErr != nil {
		// Plain-text fallback so the entry is never lost.
		log.Printf("[%s] %s: %s (JSON error: %v)", level.String(), l.component, message, jsonErr)
		return
	}

	fmt.Println(string(jsonBytes))

	if level == FATAL {
		os.Exit(1)
	}
}

func (l *Logger) Debug(message string) {
	l.log(DEBUG, message, nil)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.log(DEBUG, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Info(message string) {
	l.log(INFO, message, nil)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(INFO, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Warn(message string) {
	l.log(WARN, message, nil)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(WARN, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Error(message string, err error) {
	l.log(ERROR, message, err)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(ERROR, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) Fatal(message string, err error) {
	l.log(FATAL, message, err)
}

// defaultLevel is applied to every new Logger; SetDefaultLevel is called
// once at startup from configuration.
var defaultLevel = INFO

func SetDefaultLevel(level LogLevel) {
	defaultLevel = level
}
