package notify

import "strings"

// NormalizePhone converts local Nigerian numbers to E.164-style form without
// the leading plus: whitespace is stripped, a leading "+" is dropped, and a
// trunk-prefixed number (leading "0", at least 11 digits) has the "0"
// replaced with the 234 country code. Numbers already starting with 234, and
// anything else, pass through unchanged; the transport is the final arbiter
// of validity. An empty result is invalid.
func NormalizePhone(input string) string {
	raw := strings.Join(strings.Fields(input), "")
	if raw == "" {
		return ""
	}

	raw = strings.TrimPrefix(raw, "+")

	if strings.HasPrefix(raw, "0") && len(raw) >= 11 {
		return "234" + raw[1:]
	}

	return raw
}
