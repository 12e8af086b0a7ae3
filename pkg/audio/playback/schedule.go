package playback

import "time"

// schedule tracks the gapless playback cursor. Each chunk starts at the later
// of now and the cursor, and the cursor advances by the chunk duration, so
// back-to-back chunks butt against each other even when they arrive in a
// burst.
type schedule struct {
	cursor time.Time
}

// next returns the start time for a chunk of duration d arriving at now, and
// advances the cursor past it.
func (s *schedule) next(now time.Time, d time.Duration) time.Time {
	start := now
	if s.cursor.After(now) {
		start = s.cursor
	}
	s.cursor = start.Add(d)
	return start
}

// reset snaps the cursor back to now, abandoning any scheduled tail.
func (s *schedule) reset(now time.Time) {
	s.cursor = now
}
