package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel string

const (
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

type Logger struct {
	zap *zap.Logger
}

var globalLogger *Logger

// New builds a JSON logger writing to output. A nil output means stdout.
func New(output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.MessageKey = "action"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderCfg.CallerKey = "caller"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(output),
		zapcore.InfoLevel,
	)

	return &Logger{zap: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}
}

func Init() {
	globalLogger = New(os.Stdout)
}

// SetOutput replaces the process logger, mostly for tests that assert on log lines.
func SetOutput(output io.Writer) {
	globalLogger = New(output)
}

func Sync() {
	if globalLogger != nil {
		_ = globalLogger.zap.Sync()
	}
}

func (l *Logger) log(level LogLevel, action string, userID *string, details map[string]interface{}, err error) {
	fields := make([]zap.Field, 0, 3)
	if userID != nil {
		fields = append(fields, zap.String("user_id", *userID))
	}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}
	if err != nil {
		fields = append(fields, zap.String("error", err.Error()))
	}

	switch level {
	case LevelError:
		l.zap.Error(action, fields...)
	case LevelWarn:
		l.zap.Warn(action, fields...)
	default:
		l.zap.Info(action, fields...)
	}
}

func Info(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, nil, details, nil)
	}
}

func InfoWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelInfo, action, &userID, details, nil)
	}
}

func Warn(action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, nil, details, nil)
	}
}

func WarnWithUser(userID string, action string, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelWarn, action, &userID, details, nil)
	}
}

func Error(action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, nil, details, err)
	}
}

func ErrorWithUser(userID string, action string, err error, details map[string]interface{}) {
	if globalLogger != nil {
		globalLogger.log(LevelError, action, &userID, details, err)
	}
}

func GetUserIDFromContext(c *fiber.Ctx) *string {
	if userID := c.Locals("userID"); userID != nil {
		if id, ok := userID.(string); ok {
			return &id
		}
	}
	return nil
}

var sensitiveFields = []string{"password", "token", "secret"}

func isSensitive(key string) bool {
	key = strings.ToLower(key)
	for _, field := range sensitiveFields {
		if strings.Contains(key, field) {
			return true
		}
	}
	return false
}

func redactSensitiveFields(value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			if isSensitive(key) {
				v[key] = "[REDACTED]"
				continue
			}
			redactSensitiveFields(nested)
		}
	case []interface{}:
		for _, nested := range v {
			redactSensitiveFields(nested)
		}
	}
}

// GetRequestBodySummary returns a short, redacted rendering of a JSON body.
// A GraphQL query document is replaced by its size since inline arguments
// can carry credentials; operationName and redacted variables are kept.
func GetRequestBodySummary(c *fiber.Ctx) string {
	body := c.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	var jsonMap map[string]interface{}
	if err := json.Unmarshal(body, &jsonMap); err == nil {
		if query, ok := jsonMap["query"].(string); ok {
			jsonMap["query"] = fmt.Sprintf("omitted (%d bytes)", len(query))
		}
		redactSensitiveFields(jsonMap)
		if jsonBytes, err := json.Marshal(jsonMap); err == nil {
			if len(jsonBytes) > 200 {
				return string(jsonBytes[:200]) + "..."
			}
			return string(jsonBytes)
		}
	}

	return fmt.Sprintf("binary (%d bytes)", len(body))
}

func GetResponseSizeSummary(c *fiber.Ctx) string {
	response := c.Response()
	if response == nil {
		return "unknown"
	}

	body := response.Body()
	if len(body) == 0 {
		return "empty"
	}

	if len(body) > 1024 {
		return fmt.Sprintf("large (%d bytes)", len(body))
	}

	return fmt.Sprintf("small (%d bytes)", len(body))
}

func GenerateRequestID() string {
	return uuid.New().String()
}
