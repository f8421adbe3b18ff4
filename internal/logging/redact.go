package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const redactedValue = "***REDACTED***"

var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
}

// RedactHook masks string fields whose key looks like a credential.
type RedactHook struct{}

func (RedactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (RedactHook) Fire(entry *logrus.Entry) error {
	for key, value := range entry.Data {
		s, ok := value.(string)
		if !ok || s == "" || !sensitiveKey(key) {
			continue
		}
		entry.Data[key] = redactedValue
	}
	return nil
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
