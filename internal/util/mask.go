package util

import "strings"

// MaskSecret deja visibles los primeros y últimos caracteres de un
// secreto (salt, keys) para poder confirmarlo en logs sin exponerlo.
func MaskSecret(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "***"
	}
	return s[:2] + "…" + s[len(s)-2:]
}
