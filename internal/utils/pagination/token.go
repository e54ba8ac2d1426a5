// Package pagination implements the opaque cursor tokens used by list
// endpoints. Cursors encode the created_at and id of the last returned row so
// pages stay stable while new rows arrive at the head, and rows sharing a
// timestamp are never skipped between pages.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano

// EncodeKeysetToken creates an opaque cursor from the timestamp and id of the
// last returned row.
func EncodeKeysetToken(date time.Time, id string) string {
	return base64.StdEncoding.EncodeToString([]byte(date.Format(timeFormat) + "|" + id))
}

// DecodeKeysetToken parses a cursor back into its timestamp and id.
func DecodeKeysetToken(token string) (time.Time, string, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}

	payload := string(decodedBytes)
	sep := strings.IndexByte(payload, '|')
	if sep < 0 {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (missing id separator)")
	}

	date, err := time.Parse(timeFormat, payload[:sep])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}

	return date, payload[sep+1:], nil
}
