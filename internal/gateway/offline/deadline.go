package offline

import "time"

// DeadlinePolicy configures offline payment deadline computation.
type DeadlinePolicy struct {
	WaitingDays int
	GraceHours  int
	WorkingDays map[time.Weekday]bool
}

func DefaultWorkingDays() map[time.Weekday]bool {
	return map[time.Weekday]bool{
		time.Monday:    true,
		time.Tuesday:   true,
		time.Wednesday: true,
		time.Thursday:  true,
		time.Friday:    true,
	}
}

// PaymentDeadline computes the offline payment deadline for an event starting
// at eventBegin: min(days until begin, configured waiting days), rounded to
// the nearest half-day and shifted onto the next working day.
//
// If the event starts today or already started, the deadline degrades to a
// short fixed grace window; degraded=true tells the caller to flag the
// condition operationally instead of treating it as a normal deadline.
func PaymentDeadline(now, eventBegin time.Time, policy DeadlinePolicy) (deadline time.Time, degraded bool) {
	daysUntilBegin := int(eventBegin.Sub(now).Hours() / 24)

	waitingDays := policy.WaitingDays
	if daysUntilBegin < waitingDays {
		waitingDays = daysUntilBegin
	}

	if waitingDays <= 0 {
		grace := time.Duration(policy.GraceHours) * time.Hour
		if grace <= 0 {
			grace = 6 * time.Hour
		}
		return now.Add(grace), true
	}

	deadline = now.Add(time.Duration(waitingDays) * 24 * time.Hour).Round(12 * time.Hour)
	if deadline.Before(now) {
		deadline = deadline.Add(12 * time.Hour)
	}

	working := policy.WorkingDays
	if len(working) == 0 {
		working = DefaultWorkingDays()
	}
	for !working[deadline.Weekday()] {
		deadline = deadline.Add(24 * time.Hour)
	}

	return deadline, false
}
