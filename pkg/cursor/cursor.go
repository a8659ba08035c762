package cursor

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a cursor cannot be decoded.
// Callers are expected to treat it as "no cursor" and fall back to a
// full replay rather than failing the request.
var ErrInvalidCursor = errors.New("cursor: invalid cursor")

// Position is a point in a recipient's notification stream, ordered by
// creation time with the event ID as a tiebreaker. The zero Position
// sorts before every real event and means "from the beginning".
type Position struct {
	At time.Time
	ID string
}

// IsZero reports whether the position is the stream start.
func (p Position) IsZero() bool {
	return p.At.IsZero() && p.ID == ""
}

// Less reports whether p orders strictly before other.
func (p Position) Less(other Position) bool {
	a, b := p.At.UnixMilli(), other.At.UnixMilli()
	if a != b {
		return a < b
	}
	return p.ID < other.ID
}

// Cursor encodes the position into its opaque string form.
func (p Position) Cursor() string {
	return Encode(p.At, p.ID)
}

// Encode builds an opaque cursor from a creation time and event ID.
// The payload is a fixed-width millisecond timestamp joined with the ID,
// so cursors for the same recipient decode back to a totally ordered pair.
func Encode(t time.Time, id string) string {
	raw := fmt.Sprintf("%013d:%s", t.UnixMilli(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Decode parses an opaque cursor back into a Position.
// An empty string decodes to the zero Position. Any malformed input
// returns ErrInvalidCursor and never panics; callers treat that as a
// missing cursor and resync from the start of the stream.
func Decode(s string) (Position, error) {
	if s == "" {
		return Position{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return Position{}, errors.Join(ErrInvalidCursor, err)
	}

	millis, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return Position{}, ErrInvalidCursor
	}

	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil || ms < 0 {
		return Position{}, errors.Join(ErrInvalidCursor, err)
	}

	return Position{At: time.UnixMilli(ms).UTC(), ID: id}, nil
}

// DecodeOrZero parses a client-supplied cursor, mapping any decode
// failure to the zero Position. This is the lenient entry point used on
// reconnect paths where a bad cursor must never become an error response.
func DecodeOrZero(s string) Position {
	p, err := Decode(s)
	if err != nil {
		return Position{}
	}
	return p
}
