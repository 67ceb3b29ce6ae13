package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLimit is the page size when only a cursor is provided.
	DefaultLimit = 25
	// MaxLimit caps how many items a single page may carry.
	MaxLimit = 100
)

// Params holds cursor pagination inputs from controllers.
type Params struct {
	Limit  int
	Cursor string
}

// Requested reports whether the caller asked for paging at all.
func (p Params) Requested() bool {
	return p.Limit > 0 || strings.TrimSpace(p.Cursor) != ""
}

// Cursor pins a position to the catalog snapshot it was computed from, so a
// refreshed snapshot invalidates outstanding cursors instead of skipping rows.
type Cursor struct {
	Offset     int
	SnapshotAt time.Time
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%d|%s", cursor.Offset, cursor.SnapshotAt.UTC().Format(time.RFC3339Nano))
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor decodes a cursor; a blank value yields nil.
func ParseCursor(value string) (*Cursor, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid cursor format")
	}
	offset, err := strconv.Atoi(parts[0])
	if err != nil || offset < 0 {
		return nil, fmt.Errorf("invalid cursor offset")
	}
	t, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{Offset: offset, SnapshotAt: t}, nil
}

// ErrStaleCursor is returned when a cursor was minted against an older snapshot.
var ErrStaleCursor = fmt.Errorf("cursor refers to an older catalog snapshot")

// Page cuts one page from items. next is empty on the last page.
func Page[T any](items []T, params Params, snapshotAt time.Time) (page []T, next string, err error) {
	cursor, err := ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	start := 0
	if cursor != nil {
		if !cursor.SnapshotAt.Equal(snapshotAt.UTC()) {
			return nil, "", ErrStaleCursor
		}
		start = cursor.Offset
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + NormalizeLimit(params.Limit)
	if end >= len(items) {
		return append([]T{}, items[start:]...), "", nil
	}
	return append([]T{}, items[start:end]...), EncodeCursor(Cursor{Offset: end, SnapshotAt: snapshotAt.UTC()}), nil
}
