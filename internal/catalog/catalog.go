package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Validate for ids that are not in the catalog.
var ErrNotFound = errors.New("performance not found")

// Performance is a dated event instance that photos are attributed to.
type Performance struct {
	ID      string `json:"id" yaml:"id"`
	Display string `json:"display" yaml:"display"`
}

// Catalog is the read-only set of performances configured at startup.
// IDs are assumed unique within the configured set.
type Catalog struct {
	performances []Performance
	byID         map[string]Performance
}

func New(performances []Performance) *Catalog {
	byID := make(map[string]Performance, len(performances))
	for _, p := range performances {
		byID[p.ID] = p
	}
	return &Catalog{
		performances: performances,
		byID:         byID,
	}
}

// Load builds the catalog from PERFORMANCES_FILE (YAML) when set, otherwise
// from the PERFORMANCES environment variable (JSON array). A malformed or
// unreadable source degrades to an empty catalog rather than failing startup.
func Load() *Catalog {
	if path := os.Getenv("PERFORMANCES_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Error("Failed to read performances file", "path", path, "err", err)
			return New(nil)
		}
		var performances []Performance
		if err := yaml.Unmarshal(data, &performances); err != nil {
			slog.Error("Failed to parse performances file", "path", path, "err", err)
			return New(nil)
		}
		return New(performances)
	}

	raw := os.Getenv("PERFORMANCES")
	if raw == "" {
		raw = "[]"
	}
	var performances []Performance
	if err := json.Unmarshal([]byte(raw), &performances); err != nil {
		slog.Error("Failed to parse PERFORMANCES env variable, using empty performances list", "err", err)
		return New(nil)
	}
	return New(performances)
}

// List returns the performances in configured order.
func (c *Catalog) List() []Performance {
	result := make([]Performance, len(c.performances))
	copy(result, c.performances)
	return result
}

func (c *Catalog) Len() int {
	return len(c.performances)
}

// Validate resolves a performance id to its Performance, or ErrNotFound.
func (c *Catalog) Validate(id string) (Performance, error) {
	p, ok := c.byID[id]
	if !ok {
		return Performance{}, ErrNotFound
	}
	return p, nil
}
