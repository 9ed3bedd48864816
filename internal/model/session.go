package model

import "time"

// Session is the persisted record of a focus timer. At most one session per
// user may be non-terminal (EndTime == nil); that invariant is backed by a
// partial unique index on timer_sessions.
//
// While running, StartTime anchors the current interval and ElapsedAtPause
// holds the seconds accumulated by all previous intervals. Pause folds the
// current interval into ElapsedAtPause; resume resets StartTime. Elapsed time
// is always recomputed from these anchors, never ticked in memory, so it
// survives reconnects and server restarts.
type Session struct {
	ID             string     `json:"id"`
	UserID         string     `json:"userId"`
	TaskID         string     `json:"taskId"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	IsRunning      bool       `json:"isRunning"`
	ElapsedAtPause int        `json:"elapsedAtPause"`
	TotalDuration  *int       `json:"totalDuration,omitempty"`
	DurationLimit  *int       `json:"durationLimit,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// EffectiveElapsed is the single elapsed-time formula: the durable total plus
// the current running interval, in whole seconds.
func (s *Session) EffectiveElapsed(now time.Time) int {
	if !s.IsRunning {
		return s.ElapsedAtPause
	}
	return s.ElapsedAtPause + int(now.Sub(s.StartTime).Seconds())
}

// Terminal reports whether the session has been stopped.
func (s *Session) Terminal() bool {
	return s.EndTime != nil
}
