// Package catalog provides the immutable theme catalog split into light and dark groups.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/umputun/random-theme/app/enum"
)

//go:embed themes.yml
var defaultThemes []byte

// Theme is a single catalog entry. ID is the value persisted in the theme cell.
type Theme struct {
	Name string `yaml:"name" json:"name"`
	ID   string `yaml:"id" json:"id"`
}

// Catalog holds two disjoint groups of themes.
// It is built once and must not be mutated after Load.
type Catalog struct {
	Light []Theme `yaml:"light" json:"light"`
	Dark  []Theme `yaml:"dark" json:"dark"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	c, err := Load(bytes.NewReader(defaultThemes))
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded catalog: %w", err)
	}
	return c, nil
}

// LoadFile reads catalog from a yaml file.
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path) //nolint:gosec // catalog path comes from cli options
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer fh.Close()
	return Load(fh)
}

// Load decodes catalog from yaml and validates it.
func Load(r io.Reader) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty catalog")
		}
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return &c, nil
}

// Validate checks both groups are non-empty and every id and name is set and unique across the catalog.
func (c *Catalog) Validate() error {
	if len(c.Light) == 0 {
		return errors.New("light group is empty")
	}
	if len(c.Dark) == 0 {
		return errors.New("dark group is empty")
	}

	ids := make(map[string]enum.Group, len(c.Light)+len(c.Dark))
	names := make(map[string]struct{}, len(c.Light)+len(c.Dark))
	for _, g := range enum.GroupAll.Members() {
		for i, t := range c.group(g) {
			if t.ID == "" {
				return fmt.Errorf("%s theme #%d has empty id", g, i)
			}
			if t.Name == "" {
				return fmt.Errorf("%s theme %q has empty name", g, t.ID)
			}
			if prev, ok := ids[t.ID]; ok {
				return fmt.Errorf("duplicate theme id %q in %s and %s groups", t.ID, prev, g)
			}
			if _, ok := names[t.Name]; ok {
				return fmt.Errorf("duplicate theme name %q", t.Name)
			}
			ids[t.ID] = g
			names[t.Name] = struct{}{}
		}
	}
	return nil
}

// PoolFor returns themes eligible for the given group filter.
// For a single group it returns the catalog's own slice, callers must not modify it.
// For all it returns a new slice with light themes followed by dark ones.
func (c *Catalog) PoolFor(g enum.Group) []Theme {
	members := g.Members()
	if len(members) == 1 {
		return c.group(members[0])
	}
	res := make([]Theme, 0, len(c.Light)+len(c.Dark))
	for _, m := range members {
		res = append(res, c.group(m)...)
	}
	return res
}

// Find looks up a theme by id in both groups.
func (c *Catalog) Find(id string) (Theme, bool) {
	if id == "" {
		return Theme{}, false
	}
	for _, t := range c.PoolFor(enum.GroupAll) {
		if t.ID == id {
			return t, true
		}
	}
	return Theme{}, false
}

// GroupOf returns the group a theme id belongs to.
func (c *Catalog) GroupOf(id string) (enum.Group, bool) {
	for _, g := range enum.GroupAll.Members() {
		for _, t := range c.group(g) {
			if t.ID == id {
				return g, true
			}
		}
	}
	return enum.Group{}, false
}

func (c *Catalog) group(g enum.Group) []Theme {
	if g == enum.GroupDark {
		return c.Dark
	}
	return c.Light
}
