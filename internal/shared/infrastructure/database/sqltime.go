package database

import (
	"database/sql"
	"time"
)

// sqliteTimeLayout is fixed width so stored values sort chronologically as text.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in UTC for TEXT timestamp columns.
func FormatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// ParseTime reads a value written by FormatTime, also accepting RFC 3339.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

// NullTime renders an optional timestamp.
func NullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: FormatTime(*t), Valid: true}
}

// ParseNullTime reads an optional timestamp.
func ParseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := ParseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
