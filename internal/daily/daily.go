// internal/daily/daily.go
//
// Daily challenge seeding.
// Every player who turns on the daily filter on the same UTC date (with the
// same scope) draws the same candidate sequence, so they all get the same
// target. The seed is HMAC-SHA256(salt, date + scope) truncated to 8 bytes;
// without the salt the day's target cannot be predicted ahead of time.

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

// Seed returns a non-zero PRNG seed for the date of t.
// scope separates independent daily draws (e.g. one per generation filter).
func Seed(t time.Time, salt, scope string) uint64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	if scope != "" {
		h.Write([]byte{'|'})
		h.Write([]byte(scope))
	}
	sum := h.Sum(nil)
	// first 8 bytes; 0 is reserved for "unseeded"
	n := binary.BigEndian.Uint64(sum[:8])
	if n == 0 {
		n = 1
	}
	return n
}
