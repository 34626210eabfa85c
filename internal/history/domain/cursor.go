package history

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// CursorEvent records when a cursor value became active for a helper. The
// events form an append-only ledger, removed only when the helper cascades.
type CursorEvent struct {
	HelperSlug string
	Cursor     string
	ChangedAt  time.Time
}

// NewCursor generates a fresh 128-bit hex-encoded cursor token. Tokens are
// never reused across rotations for the same helper.
func NewCursor() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("history: generate cursor: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
