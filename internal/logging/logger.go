// Package logging builds the zerolog loggers used across twinprov and the
// helpers that keep secret values out of log and audit output.
package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Known secret field names that must be redacted in all log and audit output.
var secretFieldNames = []string{
	"secretaccesskey",
	"sessiontoken",
	"passwordhash",
	"jwt",
	"token",
	"password",
	"secret",
	"private_key",
	"privatekey",
	"clientsecret",
	"credentials",
	"secret_key",
	"secretkey",
	"access_token",
	"accesstoken",
	"refresh_token",
	"refreshtoken",
}

// NewLogger creates a console logger on stderr for interactive use.
func NewLogger(level string, runUUID string) zerolog.Logger {
	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return withRun(newLogger(writer, level), runUUID)
}

// NewJSONLogger creates a JSON-formatted logger for file output or machine consumption.
func NewJSONLogger(w io.Writer, level string, runUUID string) zerolog.Logger {
	return withRun(newLogger(w, level), runUUID)
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("component", "twinprov").
		Logger()
}

func withRun(logger zerolog.Logger, runUUID string) zerolog.Logger {
	if runUUID != "" {
		logger = logger.With().Str("run_uuid", runUUID).Logger()
	}
	return logger
}

// IsSecretField checks if a field name is a known secret field that should be redacted.
func IsSecretField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	for _, secret := range secretFieldNames {
		if strings.Contains(lower, secret) {
			return true
		}
	}
	return false
}

// RedactValue replaces a secret value with a safe placeholder containing a hash prefix.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	h := sha256.Sum256([]byte(value))
	return "[REDACTED:sha256:" + hex.EncodeToString(h[:])[:8] + "]"
}
