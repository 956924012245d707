package schedule

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/medisched/booking-api/pkg/validator"
)

// ParseSlotList splits a free-text comma-separated range list into
// accepted and rejected tokens. Empty tokens are ignored; anything
// else that fails the HH:MM-HH:MM pattern is rejected. Callers decide
// what rejection means: schedule validation treats one rejected token
// as fatal for the whole save.
func ParseSlotList(raw string) (accepted, rejected []string) {
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if validator.IsTimeRange(token) {
			accepted = append(accepted, token)
		} else {
			rejected = append(rejected, token)
		}
	}
	return accepted, rejected
}

// slotMinutes converts an HH:MM-HH:MM range to start/end minutes
// since midnight. The format must already have been pattern-checked.
func slotMinutes(timeRange string) (start, end int, err error) {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed range %q", timeRange)
	}
	start, err = clockMinutes(parts[0])
	if err != nil {
		return 0, 0, err
	}
	end, err = clockMinutes(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func clockMinutes(hhmm string) (int, error) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, err
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("time %q out of range", hhmm)
	}
	return h*60 + m, nil
}

// checkDaySlots validates the ordered slot list of one day: every
// range well-formed on the clock, start before end, and no two ranges
// overlapping.
func checkDaySlots(times []string) error {
	type span struct {
		raw        string
		start, end int
	}
	spans := make([]span, 0, len(times))

	for _, t := range times {
		if !validator.IsTimeRange(t) {
			return fmt.Errorf("invalid time slot %q", t)
		}
		start, end, err := slotMinutes(t)
		if err != nil {
			return fmt.Errorf("invalid time slot %q", t)
		}
		if start >= end {
			return fmt.Errorf("time slot %q must start before it ends", t)
		}
		spans = append(spans, span{raw: t, start: start, end: end})
	}

	for i := range spans {
		for j := i + 1; j < len(spans); j++ {
			if spans[i].start < spans[j].end && spans[j].start < spans[i].end {
				return fmt.Errorf("time slots %q and %q overlap", spans[i].raw, spans[j].raw)
			}
		}
	}
	return nil
}
