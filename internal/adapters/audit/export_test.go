package audit

import "time"

// SetClock replaces the time source used to stamp runs.
func (j *Journal) SetClock(now func() time.Time) {
	j.now = now
}
