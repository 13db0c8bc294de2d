// Package logger builds the zap loggers used across the service.
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a logger. json selects the JSON encoder, level is a zap level name.
func New(json bool, level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoding := "console"
	if json {
		encoding = "json"
	}

	cfg := zap.Config{
		Encoding:         encoding,
		Level:            zap.NewAtomicLevelAt(lvl),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderConfig(),
	}
	return cfg.Build()
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey: "msg",

		LevelKey:    "level",
		EncodeLevel: zapcore.LowercaseLevelEncoder,

		TimeKey:    "time",
		EncodeTime: zapcore.RFC3339TimeEncoder,

		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,

		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// L returns the global logger set with zap.ReplaceGlobals.
func L() *zap.Logger {
	return zap.L()
}

// GinLogger logs one line per request.
func GinLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

var (
	authLogOnce sync.Once
	authLog     *zap.Logger
	authLogPath = filepath.Join("log", "auth.log")
)

// EnableAuthLog turns on the authentication attempt log at log/auth.log.
// Failing to open the file leaves the log disabled.
func EnableAuthLog() {
	authLogOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(authLogPath), 0o750); err != nil {
			return
		}
		cfg := zap.Config{
			Encoding:         "json",
			Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
			OutputPaths:      []string{authLogPath},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    encoderConfig(),
		}
		l, err := cfg.Build()
		if err != nil {
			return
		}
		authLog = l
	})
}

// LogAuthAttempt records an authentication attempt.
// level: debug|info|warning|error
// authType: Local|Google|OTP|...
// status: Success|Fail
// identifier: email or user id (optional)
func LogAuthAttempt(level string, authType string, status string, identifier string, message string) {
	if authLog == nil {
		return
	}

	fields := []zap.Field{
		zap.String("auth_type", authType),
		zap.String("status", status),
	}
	if identifier != "" {
		fields = append(fields, zap.String("identifier", identifier))
	}

	switch strings.ToLower(level) {
	case "debug":
		authLog.Debug(message, fields...)
	case "warning", "warn":
		authLog.Warn(message, fields...)
	case "error", "fatal":
		authLog.Error(message, fields...)
	default:
		authLog.Info(message, fields...)
	}
}
