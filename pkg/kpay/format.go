package kpay

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FormatPhoneNumber normalizes Rwandan numbers to the local 07XXXXXXXX
// form KPay expects. Idempotent; unrecognized formats pass through
// unchanged rather than erroring, the gateway does its own validation.
func FormatPhoneNumber(raw string) string {
	s := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(raw)

	switch {
	case strings.HasPrefix(s, "+250") && len(s) == 13:
		return "0" + s[4:]
	case strings.HasPrefix(s, "250") && len(s) == 12:
		return "0" + s[3:]
	case len(s) == 10 && strings.HasPrefix(s, "07"):
		return s
	case len(s) == 9 && strings.HasPrefix(s, "7"):
		return "0" + s
	default:
		return raw
	}
}

// GenerateReference builds the merchant reference sent to KPay as the
// idempotency key for one payment attempt. Never reused: a retry gets a
// fresh reference on a fresh payment row.
func GenerateReference(prefix string) string {
	suffix := strings.ToUpper(uuid.NewString()[:8])
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix)
}
