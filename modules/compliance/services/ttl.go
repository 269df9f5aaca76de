package services

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	day                = 24 * time.Hour
	DefaultFallbackTTL = 30 * day

	maxDurationDays = math.MaxInt64 / int64(day)
)

var (
	errTTLEmpty   = errors.New("ttl: empty")
	errTTLInvalid = errors.New("ttl: invalid")

	ttlShortPattern = regexp.MustCompile(`^(\d+)([hdwmy])$`)
	ttlISOPattern   = regexp.MustCompile(`^p(\d+)([dw])$`)
)

// ParseTTL accepts "90d", "2w", "12h", "6m" (months of 30 days), "1y",
// ISO-8601 "P90D"/"P2W" and Go duration strings.
func ParseTTL(raw string) (time.Duration, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0, errTTLEmpty
	}
	if m := ttlShortPattern.FindStringSubmatch(s); m != nil {
		return ttlUnits(m[1], m[2])
	}
	if m := ttlISOPattern.FindStringSubmatch(s); m != nil {
		return ttlUnits(m[1], m[2])
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errTTLInvalid
	}
	return d, nil
}

func ttlUnits(num string, unit string) (time.Duration, error) {
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, errTTLInvalid
	}
	var per time.Duration
	switch unit {
	case "h":
		per = time.Hour
	case "d":
		per = day
	case "w":
		per = 7 * day
	case "m":
		per = 30 * day
	case "y":
		per = 365 * day
	default:
		return 0, errTTLInvalid
	}
	if int64(n) > math.MaxInt64/int64(per) {
		return 0, errTTLInvalid
	}
	return time.Duration(n) * per, nil
}

// TTLPolicy turns a rule TTL into a due date, using Fallback when the TTL
// is absent or unparseable.
type TTLPolicy struct {
	Fallback time.Duration
}

func NewTTLPolicy(fallback string) (TTLPolicy, error) {
	if strings.TrimSpace(fallback) == "" {
		return TTLPolicy{Fallback: DefaultFallbackTTL}, nil
	}
	d, err := ParseTTL(fallback)
	if err != nil {
		return TTLPolicy{}, err
	}
	return TTLPolicy{Fallback: d}, nil
}

func (p TTLPolicy) DueAt(assignedAt time.Time, ttl string) (due time.Time, usedFallback bool) {
	d, err := ParseTTL(ttl)
	if err != nil {
		fb := p.Fallback
		if fb <= 0 {
			fb = DefaultFallbackTTL
		}
		return assignedAt.Add(fb), true
	}
	return assignedAt.Add(d), false
}
