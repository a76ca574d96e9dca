package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/go-pkgz/lgr"
	"github.com/magiconair/properties"
)

// Props stores keys in a java-style properties file, the format the host application keeps its preferences in.
// The file is re-read on every call, the host may change it between invocations.
type Props struct {
	path string
	mu   sync.Mutex
}

// NewProps makes a properties store. The file doesn't have to exist yet.
func NewProps(path string) *Props {
	log.Printf("[DEBUG] initialized props store %s", path)
	return &Props{path: path}
}

// Get retrieves the value for the given key.
// Returns ErrNotFound if the key or the file does not exist.
func (p *Props) Get(_ context.Context, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	props, err := p.load()
	if err != nil {
		return "", err
	}
	value, ok := props.Get(key)
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// Set stores the value for the given key, keeping all other keys in the file.
func (p *Props) Set(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	props, err := p.load()
	if err != nil {
		return err
	}
	if _, _, err = props.Set(key, value); err != nil {
		return fmt.Errorf("failed to set key %q: %w", key, err)
	}
	return p.save(props)
}

// Close is a no-op, the file is not kept open.
func (p *Props) Close() error { return nil }

func (p *Props) load() (*properties.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, IgnoreMissing: true, DisableExpansion: true}
	props, err := l.LoadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties %s: %w", p.path, err)
	}
	return props, nil
}

// save writes to a temp file in the same directory and renames it over the original.
func (p *Props) save(props *properties.Properties) error {
	tmp, err := os.CreateTemp(filepath.Dir(p.path), filepath.Base(p.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // removed by rename on success

	if _, err = props.Write(tmp, properties.UTF8); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write properties: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), p.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", p.path, err)
	}
	return nil
}
