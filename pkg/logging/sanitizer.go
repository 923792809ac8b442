package logging

import (
	"regexp"
	"strings"
)

const (
	// MaxStatementLogLength is the maximum length of a SQL statement to log
	MaxStatementLogLength = 200
	// MaxArgumentLogLength is the maximum length of a single tool argument to log
	MaxArgumentLogLength = 200
	// RedactedText is the replacement text for sensitive data
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URLs
	connStringPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`)

	// Bearer tokens and x-api-key style headers echoed back in provider errors
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)

	// Provider key shapes: OpenAI (sk-...), Anthropic (sk-ant-...), Groq (gsk_...)
	providerKeyPattern = regexp.MustCompile(`\b(sk-ant-|sk-|gsk_)[A-Za-z0-9_-]{8,}`)
)

// sensitiveArgumentKeywords mark tool argument names whose values are never logged.
var sensitiveArgumentKeywords = []string{"password", "secret", "token", "key", "credential"}

// SanitizeConnectionString removes credentials from a PostgreSQL connection string.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
	return sanitized
}

// SanitizeError returns the error text with credentials and API keys removed.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@")
	sanitized = bearerPattern.ReplaceAllString(sanitized, "Bearer "+RedactedText)
	sanitized = providerKeyPattern.ReplaceAllString(sanitized, "${1}"+RedactedText)
	return sanitized
}

// SanitizeStatement collapses whitespace and truncates a SQL statement for logging.
func SanitizeStatement(statement string) string {
	if statement == "" {
		return ""
	}
	collapsed := strings.Join(strings.Fields(statement), " ")
	return TruncateString(collapsed, MaxStatementLogLength)
}

// SanitizeArguments redacts sensitive tool arguments and truncates long string values.
func SanitizeArguments(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}

	result := make(map[string]any, len(args))
	for k, v := range args {
		lowerKey := strings.ToLower(k)
		sensitive := false
		for _, keyword := range sensitiveArgumentKeywords {
			if strings.Contains(lowerKey, keyword) {
				sensitive = true
				break
			}
		}
		if sensitive {
			result[k] = RedactedText
			continue
		}
		if str, ok := v.(string); ok {
			result[k] = TruncateString(str, MaxArgumentLogLength)
		} else {
			result[k] = v
		}
	}
	return result
}

// TruncateString truncates a string to maxLen and adds ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
