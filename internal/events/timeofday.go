package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is the value of a TIME column, stored as an offset from midnight.
// MySQL allows TIME values outside a single day (-838:59:59 to 838:59:59),
// so the hour part is not limited to 24.
type TimeOfDay time.Duration

// ParseTimeOfDay parses the textual TIME representation "[-][H]HH:MM:SS[.fraction]".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	raw := s
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid hours in time of day %q", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid minutes in time of day %q", raw)
	}

	secPart, fracPart, hasFrac := strings.Cut(parts[2], ".")
	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid seconds in time of day %q", raw)
	}

	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if hasFrac {
		if fracPart == "" || len(fracPart) > 9 {
			return 0, fmt.Errorf("invalid fractional seconds in time of day %q", raw)
		}
		nanos, err := strconv.Atoi(fracPart + strings.Repeat("0", 9-len(fracPart)))
		if err != nil || nanos < 0 {
			return 0, fmt.Errorf("invalid fractional seconds in time of day %q", raw)
		}
		d += time.Duration(nanos)
	}

	if negative {
		d = -d
	}
	return TimeOfDay(d), nil
}

// Duration returns t as an offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t)
}

// String formats t as HH:MM:SS, followed by microseconds when t has a
// fractional part.
func (t TimeOfDay) String() string {
	d := time.Duration(t)
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}

	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second

	out := fmt.Sprintf("%s%02d:%02d:%02d", sign, hours, minutes, seconds)
	if micros := d / time.Microsecond; micros > 0 {
		out += fmt.Sprintf(".%06d", micros)
	}
	return out
}
