// Package store provides the host configuration store holding the theme cell.
// Backends are SQL (sqlite, postgres) and java-style properties files.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/umputun/random-theme/app/enum"
)

// ErrNotFound is returned when a key is not found in the store.
var ErrNotFound = errors.New("key not found")

// Interface is a minimal key-value configuration store.
type Interface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// New makes a store for the given URL, backend detected by enum.DetectBackend.
func New(url string) (Interface, error) {
	switch enum.DetectBackend(url) {
	case enum.BackendProps:
		return NewProps(strings.TrimPrefix(url, "props://")), nil
	default:
		s, err := NewDB(url)
		if err != nil {
			return nil, fmt.Errorf("failed to open db store: %w", err)
		}
		return s, nil
	}
}

// RWLocker is a lock used by the sql store; sqlite needs a real one, postgres handles concurrency itself.
type RWLocker interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type noopLocker struct{}

func (noopLocker) Lock()    {}
func (noopLocker) Unlock()  {}
func (noopLocker) RLock()   {}
func (noopLocker) RUnlock() {}
