package logger

import (
	"strings"
)

// MaskedEmail masks an email address for logging, e.g. "a***@e***.com".
func MaskedEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "[invalid-email]"
	}

	local := email[:at]
	domain := email[at+1:]

	if len(local) > 1 {
		local = string(local[0]) + strings.Repeat("*", len(local)-1)
	}

	parts := strings.Split(domain, ".")
	if len(parts) > 1 {
		for i := 0; i < len(parts)-1; i++ {
			parts[i] = strings.Repeat("*", len(parts[i]))
		}
		domain = strings.Join(parts, ".")
	}

	return local + "@" + domain
}

// sensitive query parameters that must never reach logs
var sensitiveParams = []string{
	"password",
	"token",
	"secret",
	"code",
	"email",
	"auth",
}

// QueryHasSensitiveParams reports whether a raw query string should be
// redacted wholesale from request logs.
func QueryHasSensitiveParams(rawQuery string) bool {
	query := strings.ToLower(rawQuery)
	for _, param := range sensitiveParams {
		if strings.Contains(query, param) {
			return true
		}
	}
	return false
}
