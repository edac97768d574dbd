// Package envfile maintains the flat KEY=value environment file that is passed
// to the s2i build via its -E flag. Entries keep their insertion order so the
// file diffs cleanly between builds, and every mutation is persisted
// immediately: the file on disk is the source of truth for the build tool.
package envfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Processor struct {
	location string
	keys     []string
	values   map[string]string
}

// Load reads an existing environment file, or starts an empty one if the file
// does not exist yet.
func Load(location string) (*Processor, error) {
	p := &Processor{
		location: location,
		values:   map[string]string{},
	}

	f, err := os.Open(location)
	if os.IsNotExist(err) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open environment file %s: %w", location, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, _ := strings.Cut(line, "=")
		p.set(key, value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read environment file %s: %w", location, err)
	}
	return p, nil
}

// Location returns the path of the persisted file, suitable for `s2i build -E`.
func (p *Processor) Location() string {
	return p.location
}

// Get returns the value for key and whether it is present.
func (p *Processor) Get(key string) (string, bool) {
	value, ok := p.values[key]
	return value, ok
}

// Keys returns the keys in insertion order.
func (p *Processor) Keys() []string {
	keys := make([]string, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// Set adds or updates a variable and persists the file.
func (p *Processor) Set(key, value string) error {
	p.set(key, value)
	return p.save()
}

// SetEntry accepts a raw "KEY=value" entry (or a bare "KEY", which stores an
// empty value) and persists the file.
func (p *Processor) SetEntry(entry string) error {
	key, value, _ := strings.Cut(entry, "=")
	return p.Set(key, value)
}

// Delete removes a variable if present and persists the file.
func (p *Processor) Delete(key string) error {
	if _, ok := p.values[key]; !ok {
		return nil
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
	return p.save()
}

func (p *Processor) set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *Processor) save() error {
	var b strings.Builder
	for _, key := range p.keys {
		fmt.Fprintf(&b, "%s=%s\n", key, p.values[key])
	}
	if err := os.MkdirAll(filepath.Dir(p.location), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for environment file: %w", err)
	}
	if err := os.WriteFile(p.location, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write environment file %s: %w", p.location, err)
	}
	return nil
}
