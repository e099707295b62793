package chat

import (
	"crypto/rand"
	"fmt"
	"time"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenLength   = 6
)

// newToken returns a short random confirmation code, uppercased so it stands
// out in the prompt. Falls back to a timestamp-derived code if the random
// source fails (should never happen).
func newToken() string {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%06d", time.Now().UnixNano()%1000000)
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf)
}
