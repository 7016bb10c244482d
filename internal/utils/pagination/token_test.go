package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeEntryCursor(t *testing.T) {
	cursor := EntryCursor{
		TransactionDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		CreatedAt:       time.Date(2025, 3, 14, 10, 30, 45, 123456789, time.UTC),
		EntryID:         "3f1c2a9e-entry",
	}

	token := EncodeEntryCursor(cursor)
	assert.NotEmpty(t, token)
	assert.NotContains(t, token, "=", "token should be URL safe without padding")

	decoded, err := DecodeEntryCursor(token)
	require.NoError(t, err)
	assert.True(t, cursor.TransactionDate.Equal(decoded.TransactionDate))
	assert.True(t, cursor.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, cursor.EntryID, decoded.EntryID)
}

func TestEncodeEntryCursor_NormalisesToUTC(t *testing.T) {
	kathmandu := time.FixedZone("NPT", 5*3600+45*60)
	local := time.Date(2025, 3, 14, 5, 45, 0, 0, kathmandu)

	decoded, err := DecodeEntryCursor(EncodeEntryCursor(EntryCursor{TransactionDate: local, CreatedAt: local, EntryID: "e"}))
	require.NoError(t, err)
	assert.True(t, local.Equal(decoded.TransactionDate))
	assert.Equal(t, time.UTC, decoded.CreatedAt.Location())
}

func TestDecodeEntryCursorError(t *testing.T) {
	_, err := DecodeEntryCursor("this is not base64!")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base64 decode")

	missingID := base64.RawURLEncoding.EncodeToString([]byte("2025-03-14T00:00:00Z|2025-03-14T00:00:00Z"))
	_, err = DecodeEntryCursor(missingID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "split")

	badDate := base64.RawURLEncoding.EncodeToString([]byte("notadate|2025-03-14T00:00:00Z|e1"))
	_, err = DecodeEntryCursor(badDate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction date parse")
}
