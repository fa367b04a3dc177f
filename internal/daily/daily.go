// internal/daily/daily.go
//
// Deterministic puzzle of the day: HMAC(salt, YYYY-MM-DD) picks an index,
// so every player gets the same puzzle and the choice cannot be predicted
// without the salt.

package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// PuzzleIndex returns a deterministic index for a date using HMAC(salt, YYYY-MM-DD) % n.
func PuzzleIndex(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// Pick returns the day's index, moving forward (with wrap-around) past
// puzzles for which playable reports false. ok is false when none is.
func Pick(date time.Time, salt string, n int, playable func(int) bool) (idx int, ok bool) {
	start := PuzzleIndex(date, salt, n)
	for i := 0; i < n; i++ {
		idx = (start + i) % n
		if playable(idx) {
			return idx, true
		}
	}
	return 0, false
}
