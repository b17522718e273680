package storage

import (
	"fmt"
	"time"
)

// timestampFormats are the text layouts go-sqlite3 writes and reads. SQLite
// hands back text instead of time.Time when it cannot see the declared column
// type, which is the case for RETURNING results.
var timestampFormats = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// timestamp is a nullable time column.
type timestamp struct {
	Time  time.Time
	Valid bool
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = timestamp{}
		return nil
	case time.Time:
		*t = timestamp{Time: v.UTC(), Valid: true}
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("storage: cannot scan %T into timestamp", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampFormats {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = timestamp{Time: parsed.UTC(), Valid: true}
			return nil
		}
	}
	return fmt.Errorf("storage: unrecognised timestamp %q", s)
}

func (t timestamp) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
