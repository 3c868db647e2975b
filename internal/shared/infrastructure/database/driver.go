package database

import "strings"

// Driver names a storage backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
	// DriverMemory keeps everything in process; no Connection is opened for it.
	DriverMemory Driver = "memory"
)

func (d Driver) String() string { return string(d) }

// IsValid returns true for known drivers.
func (d Driver) IsValid() bool {
	switch d {
	case DriverPostgres, DriverSQLite, DriverMemory:
		return true
	default:
		return false
	}
}

// DetectDriver maps a DATABASE_URL value to a driver. An empty URL selects
// local SQLite mode and "memory" selects the in-process store.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case url == "memory" || url == "mem://":
		return DriverMemory
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"),
		strings.HasSuffix(url, ".db"), strings.HasSuffix(url, ".sqlite"), strings.HasSuffix(url, ".sqlite3"):
		return DriverSQLite
	default:
		return DriverPostgres
	}
}

// SQLitePathFromURL strips a sqlite:// scheme so the rest can be used as a file path.
func SQLitePathFromURL(url string) string {
	return strings.TrimPrefix(url, "sqlite://")
}
