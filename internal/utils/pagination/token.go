package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// EntryCursor marks the last ledger entry of a page. Entries are ordered by
// transaction date, then creation time, then entry id, all descending.
type EntryCursor struct {
	TransactionDate time.Time
	CreatedAt       time.Time
	EntryID         string
}

// EncodeEntryCursor creates an opaque token for the entry after which the next page starts.
func EncodeEntryCursor(c EntryCursor) string {
	tokenStr := fmt.Sprintf("%s|%s|%s", c.TransactionDate.UTC().Format(timeFormat), c.CreatedAt.UTC().Format(timeFormat), c.EntryID)
	return base64.RawURLEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeEntryCursor parses a token produced by EncodeEntryCursor.
func DecodeEntryCursor(token string) (EntryCursor, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 || parts[2] == "" {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	txnDate, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (transaction date parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return EntryCursor{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}

	return EntryCursor{TransactionDate: txnDate, CreatedAt: createdAt, EntryID: parts[2]}, nil
}
