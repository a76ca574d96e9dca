// Package switcher runs a theme switch: reads the current theme id from the store,
// picks a different one from the catalog pool and writes it back.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/random-theme/app/catalog"
	"github.com/umputun/random-theme/app/enum"
	"github.com/umputun/random-theme/app/history"
	"github.com/umputun/random-theme/app/picker"
	"github.com/umputun/random-theme/app/store"
)

//go:generate moq -out mocks/cell.go -pkg mocks -skip-ensure -fmt goimports . Cell
//go:generate moq -out mocks/recorder.go -pkg mocks -skip-ensure -fmt goimports . Recorder

// Cell is the configuration store holding the theme id.
type Cell interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// FreshGetter is implemented by cells caching reads, GetFresh must return the stored value.
// Switch uses it to exclude what is actually stored, other writers may change the cell.
type FreshGetter interface {
	GetFresh(ctx context.Context, key string) (string, error)
}

// Recorder keeps a log of theme changes.
type Recorder interface {
	Record(ch history.Change) error
}

// Result of a switch.
type Result struct {
	Theme    catalog.Theme `json:"theme"`
	Previous string        `json:"previous,omitempty"`
	Group    enum.Group    `json:"group"`
}

// Switcher picks and persists themes. Safe for concurrent use.
type Switcher struct {
	cell    Cell
	catalog *catalog.Catalog
	picker  *picker.Picker
	key     string
	rec     Recorder // optional, nil disables history
	mu      sync.Mutex
}

// New makes a Switcher for the given cell key. rec is optional, pass nil to skip history.
func New(cell Cell, cat *catalog.Catalog, pk *picker.Picker, key string, rec Recorder) *Switcher {
	return &Switcher{cell: cell, catalog: cat, picker: pk, key: key, rec: rec}
}

// Switch picks a theme from the group pool, different from the stored one, and stores it.
func (s *Switcher) Switch(ctx context.Context, g enum.Group) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.currentID(ctx, true)
	if err != nil {
		return Result{}, err
	}

	th, err := s.picker.PickDifferent(s.catalog.PoolFor(g), prev)
	if err != nil {
		return Result{}, fmt.Errorf("failed to pick %s theme: %w", g, err)
	}

	if err := s.cell.Set(ctx, s.key, th.ID); err != nil {
		return Result{}, fmt.Errorf("failed to store theme: %w", err)
	}
	log.Printf("[INFO] theme changed from %q to %q (%s)", prev, th.ID, g)

	if s.rec != nil {
		ch := history.Change{Key: s.key, ID: th.ID, Name: th.Name, Group: g.String(), Previous: prev}
		if recErr := s.rec.Record(ch); recErr != nil {
			log.Printf("[WARN] failed to record theme change: %v", recErr)
		}
	}
	return Result{Theme: th, Previous: prev, Group: g}, nil
}

// Current returns the stored theme. ok is false if nothing is stored yet.
// An id missing from the catalog is returned as a theme with empty name.
func (s *Switcher) Current(ctx context.Context) (th catalog.Theme, ok bool, err error) {
	id, err := s.currentID(ctx, false)
	if err != nil || id == "" {
		return catalog.Theme{}, false, err
	}
	if th, found := s.catalog.Find(id); found {
		return th, true, nil
	}
	return catalog.Theme{ID: id}, true, nil
}

// Pool returns the themes eligible for the group.
func (s *Switcher) Pool(g enum.Group) []catalog.Theme {
	return s.catalog.PoolFor(g)
}

// Catalog returns the catalog used for picks.
func (s *Switcher) Catalog() *catalog.Catalog {
	return s.catalog
}

// Key returns the cell key name.
func (s *Switcher) Key() string {
	return s.key
}

// currentID returns the stored theme id, empty if not set. fresh bypasses the cell's read cache.
func (s *Switcher) currentID(ctx context.Context, fresh bool) (id string, err error) {
	if fg, ok := s.cell.(FreshGetter); ok && fresh {
		id, err = fg.GetFresh(ctx, s.key)
	} else {
		id, err = s.cell.Get(ctx, s.key)
	}
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current theme: %w", err)
	}
	return id, nil
}
