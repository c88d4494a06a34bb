package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronSchedule is a minimal standard 5-field (minute hour dom month dow)
// cron matcher: exact values, "*", comma lists, and "*/n" steps. It exists
// to evaluate the scheduler's one fixed daily_report expression without
// pulling in a scheduling library neither the teacher nor any complete
// example repo in the corpus actually uses.
type cronSchedule struct {
	minute, hour, dom, month, dow fieldSet
}

type fieldSet struct {
	any    bool
	values map[int]bool
}

func parseCron(expr string) (*cronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("cron expression %q: expected 5 fields, got %d", expr, len(fields))
	}

	minute, err := parseCronField(fields[0], 0, 59)
	if err != nil {
		return nil, err
	}
	hour, err := parseCronField(fields[1], 0, 23)
	if err != nil {
		return nil, err
	}
	dom, err := parseCronField(fields[2], 1, 31)
	if err != nil {
		return nil, err
	}
	month, err := parseCronField(fields[3], 1, 12)
	if err != nil {
		return nil, err
	}
	dow, err := parseCronField(fields[4], 0, 6)
	if err != nil {
		return nil, err
	}

	return &cronSchedule{minute: minute, hour: hour, dom: dom, month: month, dow: dow}, nil
}

func parseCronField(field string, min, max int) (fieldSet, error) {
	if field == "*" {
		return fieldSet{any: true}, nil
	}

	values := make(map[int]bool)
	for _, part := range strings.Split(field, ",") {
		if step, ok := strings.CutPrefix(part, "*/"); ok {
			n, err := strconv.Atoi(step)
			if err != nil || n <= 0 {
				return fieldSet{}, fmt.Errorf("cron field %q: invalid step", field)
			}
			for v := min; v <= max; v += n {
				values[v] = true
			}
			continue
		}

		n, err := strconv.Atoi(part)
		if err != nil || n < min || n > max {
			return fieldSet{}, fmt.Errorf("cron field %q: invalid value %q", field, part)
		}
		values[n] = true
	}

	return fieldSet{values: values}, nil
}

func (f fieldSet) matches(v int) bool {
	return f.any || f.values[v]
}

func (c *cronSchedule) matches(t time.Time) bool {
	return c.minute.matches(t.Minute()) &&
		c.hour.matches(t.Hour()) &&
		c.dom.matches(t.Day()) &&
		c.month.matches(int(t.Month())) &&
		c.dow.matches(int(t.Weekday()))
}

// next returns the first whole minute strictly after `after` that matches
// the schedule, searching up to one year ahead as a sanity bound.
func (c *cronSchedule) next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(1, 0, 0)
	for t.Before(limit) {
		if c.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return limit
}
