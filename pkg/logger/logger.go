package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	applicationPort "github.com/mangalakulal105/benchtrack/internal/application/port"
)

type Logger struct {
	logger    *log.Logger
	level     Level
	publisher applicationPort.LogPublisher
}

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func New(level string) *Logger {
	l := &Logger{
		logger: log.New(os.Stdout, "", 0),
		level:  parseLevel(level),
	}
	return l
}

func parseLevel(level string) Level {
	switch level {
	case "debug":
		return DEBUG
	case "info":
		return INFO
	case "warn":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// SetLogPublisher attaches an external log sink. Entries at INFO and above
// are forwarded to it in addition to stdout.
func (l *Logger) SetLogPublisher(publisher applicationPort.LogPublisher) {
	l.publisher = publisher
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level <= DEBUG {
		l.log("DEBUG", applicationPort.LogLevelDebug, msg, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level <= INFO {
		l.log("INFO", applicationPort.LogLevelInfo, msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level <= WARN {
		l.log("WARN", applicationPort.LogLevelWarn, msg, args...)
	}
}

func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if l.level <= ERROR {
		if err != nil {
			args = append(args, "error", err.Error())
		}
		l.log("ERROR", applicationPort.LogLevelError, msg, args...)
	}
}

func (l *Logger) log(level string, portLevel applicationPort.LogLevel, msg string, args ...interface{}) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf("[%s] [%s] %s", timestamp, level, msg)

	if len(args) > 0 {
		message += " |"
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				message += fmt.Sprintf(" %v=%v", args[i], args[i+1])
			}
		}
	}

	l.logger.Println(message)

	if l.publisher != nil && portLevel != applicationPort.LogLevelDebug {
		fields := make(map[string]interface{})
		for i := 0; i < len(args); i += 2 {
			if i+1 < len(args) {
				fields[fmt.Sprintf("%v", args[i])] = args[i+1]
			}
		}

		entry := applicationPort.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     portLevel,
			Message:   msg,
			Fields:    fields,
		}

		// best effort, never block the caller on the sink
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = l.publisher.Publish(ctx, entry)
	}
}
