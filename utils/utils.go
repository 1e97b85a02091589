package utils

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var truthy = []string{"true", "t", "yes"}

// InitLogger builds a console logger in a human readable format
func InitLogger(debug bool) *zap.Logger {
	prodConfig := zap.NewProductionConfig()
	prodConfig.Encoding = "console"
	prodConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	prodConfig.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if debug {
		prodConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := prodConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// TrimSpaceNewline deletes space character and newline character(CR/LF)
func TrimSpaceNewline(str string) string {
	str = strings.TrimSpace(str)
	return strings.Trim(str, "\r\n")
}

// IsTruthy reports whether val spells one of the accepted "on" values
func IsTruthy(val string) bool {
	val = strings.ToLower(TrimSpaceNewline(val))
	for _, t := range truthy {
		if val == t {
			return true
		}
	}
	return false
}

func LookupEnv(key, defaultValue string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultValue
}

// Lookup resolves a named setting. os.LookupEnv satisfies it.
type Lookup func(key string) (string, bool)

// Input returns the GitHub Action input called name. The runner exposes
// inputs as INPUT_<NAME> with spaces replaced by underscores.
func Input(lookup Lookup, name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	val, ok := lookup(key)
	if !ok {
		return ""
	}
	return TrimSpaceNewline(val)
}

// FirstNonEmpty returns the first argument that is not blank
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
