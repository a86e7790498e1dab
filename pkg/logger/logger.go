// Package logger provides a logrus-backed logging system with multiple outputs.
// It supports console logging with colors, file logging, and Discord webhook logging.
package logger

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m" // Red
	case LevelWarn:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelDebug:
		return "\033[35m" // Magenta
	case LevelSystem:
		return "\033[34m" // Blue
	default:
		return "\033[0m" // Reset
	}
}

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int {
	switch l {
	case LevelCritical, LevelError:
		return 0xFF0000 // Red
	case LevelWarn:
		return 0xFFFF00 // Yellow
	case LevelSuccess:
		return 0x00FF00 // Green
	case LevelInfo:
		return 0x0000FF // Blue
	case LevelDebug:
		return 0x800080 // Purple
	case LevelSystem:
		return 0x808080 // Grey
	default:
		return 0xFFFFFF // White
	}
}

const colorReset = "\033[0m"

const (
	fieldLevel  = "pancyLevel"
	fieldPrefix = "prefix"
)

// Logger is the main logging structure
type Logger struct {
	logrus    *logrus.Logger
	logFile   *os.File
	errorFile *os.File
}

// logger is the global logger instance
var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(logsDir, errorWebhook, logsWebhook string) *Logger {
	once.Do(func() {
		logger = NewLogger(logsDir, errorWebhook, logsWebhook)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger("", "", "")
	})
	return logger
}

// NewLogger creates a new Logger. An empty logsDir disables file output.
func NewLogger(logsDir, errorWebhook, logsWebhook string) *Logger {
	l := &Logger{logrus: logrus.New()}

	l.logrus.SetLevel(logrus.DebugLevel)
	l.logrus.SetFormatter(&lineFormatter{colors: true})
	l.logrus.SetOutput(os.Stdout)

	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			fmt.Printf("Error creating logs directory: %v\n", err)
		}

		var err error
		l.logFile, err = os.OpenFile(filepath.Join(logsDir, "combined.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Error opening combined log file: %v\n", err)
		}

		l.errorFile, err = os.OpenFile(filepath.Join(logsDir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Printf("Error opening error log file: %v\n", err)
		}

		l.logrus.AddHook(&fileHook{combined: l.logFile, errors: l.errorFile})
	}

	if errorWebhook != "" || logsWebhook != "" {
		l.logrus.AddHook(&webhookHook{
			errorURL: errorWebhook,
			logsURL:  logsWebhook,
			client:   &http.Client{Timeout: 5 * time.Second},
		})
	}

	return l
}

// log routes a message through logrus with the custom level and prefix attached
func (l *Logger) log(level LogLevel, message string, prefix string) {
	entry := l.logrus.WithFields(logrus.Fields{
		fieldLevel:  level,
		fieldPrefix: prefix,
	})

	switch level {
	case LevelCritical, LevelError:
		entry.Error(message)
	case LevelWarn:
		entry.Warn(message)
	case LevelDebug:
		entry.Debug(message)
	default:
		entry.Info(message)
	}
}

// entryLevel recovers the custom level stored on an entry
func entryLevel(entry *logrus.Entry) LogLevel {
	if level, ok := entry.Data[fieldLevel].(LogLevel); ok {
		return level
	}
	switch entry.Level {
	case logrus.PanicLevel, logrus.FatalLevel:
		return LevelCritical
	case logrus.ErrorLevel:
		return LevelError
	case logrus.WarnLevel:
		return LevelWarn
	case logrus.DebugLevel, logrus.TraceLevel:
		return LevelDebug
	default:
		return LevelInfo
	}
}

func entryPrefix(entry *logrus.Entry) string {
	if prefix, ok := entry.Data[fieldPrefix].(string); ok {
		return prefix
	}
	return "-"
}

// lineFormatter renders "[time] [LEVEL] [prefix]: message"
type lineFormatter struct {
	colors bool
}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := entryLevel(entry)
	levelText := level.String()
	if f.colors {
		levelText = level.Color() + levelText + colorReset
	}
	line := fmt.Sprintf("[%s] [%s] [%s]: %s\n",
		entry.Time.Format("2006-01-02 15:04:05"),
		levelText,
		entryPrefix(entry),
		entry.Message,
	)
	return []byte(line), nil
}

// fileHook mirrors every entry to combined.log and error levels to error.log
type fileHook struct {
	combined *os.File
	errors   *os.File
	mu       sync.Mutex
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := (&lineFormatter{}).Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.combined != nil {
		h.combined.Write(line)
	}
	if entryLevel(entry) <= LevelError && h.errors != nil {
		h.errors.Write(line)
	}
	return nil
}

// webhookHook posts entries to Discord webhooks without blocking the caller
type webhookHook struct {
	errorURL string
	logsURL  string
	client   *http.Client
}

func (h *webhookHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *webhookHook) Fire(entry *logrus.Entry) error {
	level := entryLevel(entry)

	webhookURL := h.logsURL
	if level <= LevelError {
		webhookURL = h.errorURL
	}
	if webhookURL == "" {
		return nil
	}

	go h.send(webhookURL, level, entry.Message, entryPrefix(entry))
	return nil
}

func (h *webhookHook) send(webhookURL string, level LogLevel, message, prefix string) {
	embed := map[string]interface{}{
		"title":       fmt.Sprintf("[%s] %s", level.String(), prefix),
		"description": fmt.Sprintf("```%s```", message),
		"color":       level.DiscordColor(),
		"timestamp":   time.Now().Format(time.RFC3339),
		"footer": map[string]string{
			"text": "💫 Developed by PancyStudio | PancyGuard",
		},
	}

	payload := map[string]interface{}{
		"embeds": []interface{}{embed},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest("POST", webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
}

// Logrus exposes the underlying logrus instance for libraries that accept one
func (l *Logger) Logrus() *logrus.Logger {
	return l.logrus
}

// Close closes the log files
func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
	if l.errorFile != nil {
		l.errorFile.Close()
	}
}

// Logging methods

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

// Critical logs a critical message using the global logger
func Critical(message string, prefix string) {
	Get().Critical(message, prefix)
}

// Error logs an error message using the global logger
func Error(message string, prefix string) {
	Get().Error(message, prefix)
}

// Warn logs a warning message using the global logger
func Warn(message string, prefix string) {
	Get().Warn(message, prefix)
}

// Success logs a success message using the global logger
func Success(message string, prefix string) {
	Get().Success(message, prefix)
}

// Info logs an info message using the global logger
func Info(message string, prefix string) {
	Get().Info(message, prefix)
}

// Debug logs a debug message using the global logger
func Debug(message string, prefix string) {
	Get().Debug(message, prefix)
}

// System logs a system message using the global logger
func System(message string, prefix string) {
	Get().System(message, prefix)
}
