package enum

import (
	"fmt"
	"strings"
)

// Backend is a kind of configuration store, see DetectBackend.
type Backend struct {
	name  string
	value int
}

func (e Backend) String() string { return e.name }

// Index returns the underlying integer value
func (e Backend) Index() int { return e.value }

// MarshalText implements encoding.TextMarshaler
func (e Backend) MarshalText() ([]byte, error) {
	return []byte(e.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Backend) UnmarshalText(text []byte) error {
	var err error
	*e, err = ParseBackend(string(text))
	return err
}

// backendParseMap maps lowercase names and aliases to values
var backendParseMap = map[string]Backend{
	"sqlite":     BackendSQLite,
	"sqlite3":    BackendSQLite,
	"postgres":   BackendPostgres,
	"postgresql": BackendPostgres,
	"pg":         BackendPostgres,
	"props":      BackendProps,
	"properties": BackendProps,
}

// ParseBackend converts string to backend enum value
func ParseBackend(v string) (Backend, error) {
	if val, ok := backendParseMap[strings.ToLower(v)]; ok {
		return val, nil
	}
	return Backend{}, fmt.Errorf("invalid backend: %s", v)
}

// MustBackend is like ParseBackend but panics if string is invalid
func MustBackend(v string) Backend {
	r, err := ParseBackend(v)
	if err != nil {
		panic(err)
	}
	return r
}

// Public constants for backend values
var (
	BackendSQLite   = Backend{name: "sqlite", value: 0}
	BackendPostgres = Backend{name: "postgres", value: 1}
	BackendProps    = Backend{name: "props", value: 2}
)

// BackendValues contains all possible enum values
var BackendValues = []Backend{
	BackendSQLite,
	BackendPostgres,
	BackendProps,
}

// BackendNames contains all possible enum names
var BackendNames = []string{
	"sqlite",
	"postgres",
	"props",
}
