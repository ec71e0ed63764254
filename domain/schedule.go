package domain

import (
	"errors"
	"fmt"
	"time"
)

// UpdateSchedule controls on which days an update policy runs.
type UpdateSchedule string

const (
	ScheduleLive    UpdateSchedule = "live"
	ScheduleDaily   UpdateSchedule = "daily"
	ScheduleWeekly  UpdateSchedule = "weekly"
	ScheduleMonthly UpdateSchedule = "monthly"
)

var ErrUnsupportedSchedule = errors.New("unsupported update schedule")

// ParseUpdateSchedule validates a raw update_schedule value.
func ParseUpdateSchedule(raw string) (UpdateSchedule, error) {
	switch s := UpdateSchedule(raw); s {
	case ScheduleLive, ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSchedule, raw)
	}
}

// RunsOn reports whether the schedule permits a run on the given day.
// Weekly schedules run on Mondays, monthly schedules on the first of the
// month; live and daily run every day.
func (s UpdateSchedule) RunsOn(day time.Time) bool {
	switch s {
	case ScheduleWeekly:
		return day.Weekday() == time.Monday
	case ScheduleMonthly:
		return day.Day() == 1
	default:
		return true
	}
}
