package appcron

import (
	"hash/fnv"
	"time"
)

// Jitter is the deterministic offset of a candidate inside a cycle: the
// same candidate and cycle key always land on the same offset in
// [0, window).
func Jitter(candidateID, cycleKey string, window time.Duration) time.Duration {
	secs := uint64(window / time.Second)
	if secs == 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(candidateID + "|" + cycleKey))
	return time.Duration(h.Sum64()%secs) * time.Second
}

// CycleKey names a cycle by its start minute in UTC.
func CycleKey(at time.Time) string {
	return at.UTC().Format("2006-01-02T15:04")
}
