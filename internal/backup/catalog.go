package backup

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danieljhkim/conflictfix/internal/fsops"
)

// catalogStore reads and writes the catalog document.
type catalogStore struct {
	fs   fsops.FS
	path string
}

// load returns the catalog, or an empty one when the file does not exist.
func (c *catalogStore) load() (*Catalog, error) {
	data, err := c.fs.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Catalog{Sessions: []Session{}}, nil
		}
		return nil, fmt.Errorf("failed to read backup catalog: %w", err)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backup catalog: %w", err)
	}
	if cat.Sessions == nil {
		cat.Sessions = []Session{}
	}
	return &cat, nil
}

// save writes the catalog atomically.
func (c *catalogStore) save(cat *Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup catalog: %w", err)
	}
	if err := c.fs.AtomicWrite(c.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backup catalog: %w", err)
	}
	return nil
}
