package enum

import (
	"fmt"
	"strings"
)

// Group selects the theme pool: light, dark or all of them.
type Group struct {
	name  string
	value int
}

func (e Group) String() string { return e.name }

// Index returns the underlying integer value
func (e Group) Index() int { return e.value }

// MarshalText implements encoding.TextMarshaler
func (e Group) MarshalText() ([]byte, error) {
	return []byte(e.name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Group) UnmarshalText(text []byte) error {
	var err error
	*e, err = ParseGroup(string(text))
	return err
}

// groupParseMap maps lowercase names and aliases to values
var groupParseMap = map[string]Group{
	"all":   GroupAll,
	"light": GroupLight,
	"dark":  GroupDark,
}

// ParseGroup converts string to group enum value
func ParseGroup(v string) (Group, error) {
	if val, ok := groupParseMap[strings.ToLower(v)]; ok {
		return val, nil
	}
	return Group{}, fmt.Errorf("invalid group: %s", v)
}

// MustGroup is like ParseGroup but panics if string is invalid
func MustGroup(v string) Group {
	r, err := ParseGroup(v)
	if err != nil {
		panic(err)
	}
	return r
}

// Public constants for group values
var (
	GroupAll   = Group{name: "all", value: 0}
	GroupLight = Group{name: "light", value: 1}
	GroupDark  = Group{name: "dark", value: 2}
)

// GroupValues contains all possible enum values
var GroupValues = []Group{
	GroupAll,
	GroupLight,
	GroupDark,
}

// GroupNames contains all possible enum names
var GroupNames = []string{
	"all",
	"light",
	"dark",
}
