package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig - настройки логирования
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json или text
	Output      string // путь к файлу; пусто = stderr
	Development bool   // режим разработки (caller, stacktrace на warn)
}

// Logger - обёртка над zap.Logger с доменными конструкторами полей
type Logger struct {
	*zap.Logger
}

// parseLevel преобразует строковый уровень в zapcore.Level.
// Неизвестные значения дают InfoLevel.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger создаёт и настраивает logger.
// При недоступном файле вывода откатывается на stderr, не паникует.
func InitLogger(config LogConfig) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if strings.ToLower(config.Format) == "text" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if config.Output != "" {
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			sink = zapcore.AddSync(file)
		}
	}

	core := zapcore.NewCore(encoder, sink, parseLevel(config.Level))

	opts := []zap.Option{zap.AddCaller()}
	if config.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	} else {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl}
}

// With возвращает дочерний logger с добавленными полями
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// WithComponent возвращает logger с полем component
func (l *Logger) WithComponent(name string) *Logger {
	return l.With(Component(name))
}

// WithCoin возвращает logger с полем coin
func (l *Logger) WithCoin(coin string) *Logger {
	return l.With(Coin(coin))
}

// WithClientIP возвращает logger с полем client_ip
func (l *Logger) WithClientIP(ip string) *Logger {
	return l.With(ClientIP(ip))
}

// WithEndpoint возвращает logger с полем endpoint
func (l *Logger) WithEndpoint(url string) *Logger {
	return l.With(Endpoint(url))
}

// ============================================================
// Глобальный logger
// ============================================================

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// InitGlobalLogger инициализирует глобальный logger
func InitGlobalLogger(config LogConfig) *Logger {
	logger := InitLogger(config)
	SetGlobalLogger(logger)
	return logger
}

// SetGlobalLogger устанавливает глобальный logger
func SetGlobalLogger(logger *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = logger
}

// GetGlobalLogger возвращает глобальный logger, создавая дефолтный при необходимости
func GetGlobalLogger() *Logger {
	globalMu.RLock()
	if globalLogger != nil {
		defer globalMu.RUnlock()
		return globalLogger
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L - короткий алиас для GetGlobalLogger
func L() *Logger {
	return GetGlobalLogger()
}

// Глобальные функции логирования

func Debug(msg string, fields ...zap.Field) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { GetGlobalLogger().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { GetGlobalLogger().Fatal(msg, fields...) }

// ============================================================
// Конструкторы доменных полей
// ============================================================

func Coin(coin string) zap.Field        { return zap.String("coin", coin) }
func Network(network string) zap.Field  { return zap.String("network", network) }
func Asset(asset string) zap.Field      { return zap.String("asset", asset) }
func Amount(amount string) zap.Field    { return zap.String("amount", amount) }
func ClientIP(ip string) zap.Field      { return zap.String("client_ip", ip) }
func Endpoint(url string) zap.Field     { return zap.String("endpoint", url) }
func Component(name string) zap.Field   { return zap.String("component", name) }
func RequestID(id string) zap.Field     { return zap.String("request_id", id) }
func WithdrawID(id string) zap.Field    { return zap.String("withdraw_id", id) }
func Role(role string) zap.Field        { return zap.String("role", role) }
func Status(status int) zap.Field       { return zap.Int("status", status) }
func Latency(ms float64) zap.Field      { return zap.Float64("latency_ms", ms) }
func OffsetMs(offset int64) zap.Field   { return zap.Int64("offset_ms", offset) }
func MaskedKey(masked string) zap.Field { return zap.String("api_key", masked) }

// Переэкспорт стандартных конструкторов zap для удобства вызывающего кода

func String(key, value string) zap.Field       { return zap.String(key, value) }
func Int(key string, value int) zap.Field      { return zap.Int(key, value) }
func Int64(key string, value int64) zap.Field  { return zap.Int64(key, value) }
func Float64(key string, v float64) zap.Field  { return zap.Float64(key, v) }
func Bool(key string, value bool) zap.Field    { return zap.Bool(key, value) }
func Err(err error) zap.Field                  { return zap.Error(err) }
func Any(key string, value interface{}) zap.Field { return zap.Any(key, value) }
