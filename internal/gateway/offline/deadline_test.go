package offline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPaymentDeadlineGraceFallback(t *testing.T) {
	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

	t.Run("event today", func(t *testing.T) {
		eventBegin := now.Add(4 * time.Hour)
		deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 5, GraceHours: 3})
		assert.True(t, degraded)
		assert.Equal(t, now.Add(3*time.Hour), deadline)
	})

	t.Run("event already started", func(t *testing.T) {
		eventBegin := now.Add(-2 * time.Hour)
		deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 5, GraceHours: 3})
		assert.True(t, degraded)
		assert.Equal(t, now.Add(3*time.Hour), deadline)
	})

	t.Run("default grace when unconfigured", func(t *testing.T) {
		eventBegin := now.Add(time.Hour)
		deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 5})
		assert.True(t, degraded)
		assert.Equal(t, now.Add(6*time.Hour), deadline)
	})
}

func TestPaymentDeadlineCappedByEventBegin(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) // Monday
	eventBegin := now.Add(3 * 24 * time.Hour)

	deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 10, GraceHours: 6})
	assert.False(t, degraded)
	// the 10 configured days collapse to the 3 left before the event
	assert.True(t, deadline.Before(now.Add(4*24*time.Hour)),
		"deadline %v must be capped near event begin %v", deadline, eventBegin)
	assert.True(t, deadline.After(now))
}

func TestPaymentDeadlineRoundsToHalfDay(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 13, 37, 0, time.UTC) // Monday
	eventBegin := now.Add(30 * 24 * time.Hour)

	deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 2, GraceHours: 6})
	assert.False(t, degraded)
	assert.Zero(t, deadline.Minute())
	assert.Zero(t, deadline.Second())
	assert.True(t, deadline.Hour() == 0 || deadline.Hour() == 12)
}

func TestPaymentDeadlineSkipsNonWorkingDays(t *testing.T) {
	// Friday: two waiting days land on the weekend
	now := time.Date(2026, time.March, 6, 9, 0, 0, 0, time.UTC)
	eventBegin := now.Add(30 * 24 * time.Hour)

	deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 2, GraceHours: 6})
	assert.False(t, degraded)
	assert.True(t, DefaultWorkingDays()[deadline.Weekday()],
		"deadline weekday %v must be a working day", deadline.Weekday())
}

func TestPaymentDeadlineCustomWorkingDays(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC) // Monday
	eventBegin := now.Add(30 * 24 * time.Hour)
	onlySaturday := map[time.Weekday]bool{time.Saturday: true}

	deadline, degraded := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 1, GraceHours: 6, WorkingDays: onlySaturday})
	assert.False(t, degraded)
	assert.Equal(t, time.Saturday, deadline.Weekday())
}

func TestPaymentDeadlineNeverBeforeNow(t *testing.T) {
	now := time.Date(2026, time.March, 2, 23, 50, 0, 0, time.UTC)
	eventBegin := now.Add(30 * 24 * time.Hour)

	deadline, _ := PaymentDeadline(now, eventBegin, DeadlinePolicy{WaitingDays: 1, GraceHours: 6})
	assert.True(t, deadline.After(now))
}
