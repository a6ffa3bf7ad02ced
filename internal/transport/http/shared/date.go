package shared

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"holidayhub/internal/domain/leave"
)

// ParseDate accepts YYYY-MM-DD or RFC3339 and keeps only the calendar day.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(leave.DateLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return leave.DateOnly(parsed), nil
}

// QueryInt returns nil when the parameter is absent.
func QueryInt(r *http.Request, key string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}
