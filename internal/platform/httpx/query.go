package httpx

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// QueryInt64 parses a positive integer query parameter.
func QueryInt64(q url.Values, key string) *int64 {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// QueryDate parses a YYYY-MM-DD query parameter in UTC.
func QueryDate(q url.Values, key string) *time.Time {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// QueryEnum returns the parameter when it is one of allowed, else "".
func QueryEnum(q url.Values, key string, allowed ...string) string {
	raw := strings.TrimSpace(q.Get(key))
	for _, a := range allowed {
		if raw == a {
			return raw
		}
	}
	return ""
}
