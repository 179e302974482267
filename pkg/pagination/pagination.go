package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errMalformed = errors.New("malformed cursor")

// Params is a keyset page request: an optional opaque cursor plus a page size.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor marks the last row of the previous page. Rows sort by
// (CreatedAt, ID) descending, so ID breaks ties between orders placed in
// the same instant.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// Clamp maps a requested page size into [1, MaxLimit], defaulting unset values.
func Clamp(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Fetch is the row count to query: one past the page so a following page can be detected.
func Fetch(limit int) int {
	return Clamp(limit) + 1
}

// Split cuts rows fetched with Fetch(limit) down to one page. more reports
// whether a further page exists; the cursor should then point at page's last row.
func Split[T any](rows []T, limit int) (page []T, more bool) {
	limit = Clamp(limit)
	if len(rows) > limit {
		return rows[:limit], true
	}
	return rows, false
}

// EncodeCursor renders a URL-safe token for use in a query string.
func EncodeCursor(c Cursor) string {
	raw := strconv.FormatInt(c.CreatedAt.UTC().UnixNano(), 10) + "." + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor reverses EncodeCursor. An empty value means the first page and returns nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	nanos, id, ok := strings.Cut(string(decoded), ".")
	if !ok {
		return nil, errMalformed
	}

	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad timestamp", errMalformed)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: bad id", errMalformed)
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: parsedID}, nil
}
