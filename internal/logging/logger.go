// Package logging emits structured JSON log lines to stderr.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel is the minimum severity a log line must have to be written.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ParseLevel maps a level name onto a LogLevel. Unknown names are an error.
func ParseLevel(s string) (LogLevel, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug, nil
	case LogLevelInfo, "":
		return LogLevelInfo, nil
	case LogLevelWarn, "warning":
		return LogLevelWarn, nil
	case LogLevelError:
		return LogLevelError, nil
	}
	return "", fmt.Errorf("unknown log level %q", s)
}

// StructuredLogEntry is one JSON log line.
type StructuredLogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Operation string         `json:"operation,omitempty"`
	Region    string         `json:"region,omitempty"`
	Resource  string         `json:"resource,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metrics   map[string]any `json:"metrics,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
}

// StructuredLogger writes StructuredLogEntry lines at or above minLevel.
type StructuredLogger struct {
	mu       sync.Mutex
	out      *log.Logger
	minLevel LogLevel
}

var structuredLogger = &StructuredLogger{
	out:      log.New(os.Stderr, "", 0),
	minLevel: LogLevelInfo,
}

// SetLogLevel sets the minimum log level.
func SetLogLevel(level LogLevel) {
	structuredLogger.mu.Lock()
	defer structuredLogger.mu.Unlock()
	structuredLogger.minLevel = level
}

// SetOutput redirects log lines to w.
func SetOutput(w io.Writer) {
	structuredLogger.mu.Lock()
	defer structuredLogger.mu.Unlock()
	structuredLogger.out = log.New(w, "", 0)
}

// Enabled reports whether lines at level would be written.
func Enabled(level LogLevel) bool {
	structuredLogger.mu.Lock()
	defer structuredLogger.mu.Unlock()
	return logLevelPriority(level) >= logLevelPriority(structuredLogger.minLevel)
}

func logLevelPriority(level LogLevel) int {
	switch level {
	case LogLevelDebug:
		return 0
	case LogLevelInfo:
		return 1
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	default:
		return 1
	}
}

func logStructured(level LogLevel, message string, fields ...map[string]any) {
	if !Enabled(level) {
		return
	}

	entry := StructuredLogEntry{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
	}

	for _, field := range fields {
		for k, v := range field {
			switch k {
			case "operation":
				entry.Operation = fmt.Sprintf("%v", v)
			case "region":
				entry.Region = fmt.Sprintf("%v", v)
			case "resource":
				entry.Resource = fmt.Sprintf("%v", v)
			case "error":
				entry.Error = fmt.Sprintf("%v", v)
			case "metrics":
				if m, ok := v.(map[string]any); ok {
					entry.Metrics = m
				}
			default:
				if entry.Context == nil {
					entry.Context = make(map[string]any)
				}
				entry.Context[k] = v
			}
		}
	}

	structuredLogger.mu.Lock()
	defer structuredLogger.mu.Unlock()

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		structuredLogger.out.Printf("[%s] %s", level, message)
		return
	}
	structuredLogger.out.Println(string(jsonBytes))
}

// LogDebug logs a debug message.
func LogDebug(message string, fields ...map[string]any) {
	logStructured(LogLevelDebug, message, fields...)
}

// LogInfo logs an info message.
func LogInfo(message string, fields ...map[string]any) {
	logStructured(LogLevelInfo, message, fields...)
}

// LogWarn logs a warning message.
func LogWarn(message string, fields ...map[string]any) {
	logStructured(LogLevelWarn, message, fields...)
}

// LogError logs an error message. err may be nil.
func LogError(message string, err error, fields ...map[string]any) {
	if err != nil {
		fields = append([]map[string]any{{"error": err.Error()}}, fields...)
	}
	logStructured(LogLevelError, message, fields...)
}

// LogOperationStart logs the start of an operation.
func LogOperationStart(operation string, fields ...map[string]any) {
	opFields := append([]map[string]any{{"operation": operation}}, fields...)
	LogDebug(fmt.Sprintf("Starting operation: %s", operation), opFields...)
}

// LogOperationEnd logs the end of an operation and records it in the
// metrics registry.
func LogOperationEnd(operation string, duration time.Duration, success bool, itemsProcessed, itemsFound int, err error) {
	GetMetrics().RecordOperation(operation, duration, success, itemsProcessed, itemsFound, err)

	fields := map[string]any{
		"operation":       operation,
		"duration_ms":     duration.Milliseconds(),
		"success":         success,
		"items_processed": itemsProcessed,
		"items_found":     itemsFound,
	}
	if success {
		LogInfo(fmt.Sprintf("Completed operation: %s", operation), fields)
	} else {
		LogError(fmt.Sprintf("Failed operation: %s", operation), err, fields)
	}
}

// LogAPICall logs an API call and records it in the metrics registry.
func LogAPICall(apiName, region string, success bool, duration time.Duration, err error) {
	GetMetrics().RecordAPICall(apiName, success, err)

	fields := map[string]any{
		"api_name":    apiName,
		"success":     success,
		"duration_ms": duration.Milliseconds(),
	}
	if region != "" {
		fields["region"] = region
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	if success {
		LogDebug(fmt.Sprintf("API call: %s", apiName), fields)
	} else {
		LogWarn(fmt.Sprintf("API call failed: %s", apiName), fields)
	}
}
