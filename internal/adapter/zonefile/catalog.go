// Package zonefile loads the zone catalog from a YAML file.
package zonefile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"gopkg.in/yaml.v3"
)

type document struct {
	Zones []domain.Zone `yaml:"zones"`
}

// Catalog is an immutable, in-memory zone list.
type Catalog struct {
	zones []domain.Zone
}

// Load reads and validates a zone file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a zone document. Unknown keys are rejected so typos in
// covariate names do not silently zero a profile.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode zone file: %w", err)
	}

	seen := make(map[string]bool, len(doc.Zones))
	for i, z := range doc.Zones {
		name := strings.TrimSpace(z.Name)
		if name == "" {
			return nil, fmt.Errorf("zone %d: name is required", i)
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("zone %q: duplicate name", name)
		}
		seen[key] = true
		if err := z.Center.Validate(); err != nil {
			return nil, fmt.Errorf("zone %q: %w", name, err)
		}
		if z.Covariates.DrainageCapacity < 0 {
			return nil, fmt.Errorf("zone %q: drainage_capacity must be >= 0", name)
		}
		doc.Zones[i].Name = name
	}

	return &Catalog{zones: doc.Zones}, nil
}

// Zones returns a copy of the catalog.
func (c *Catalog) Zones(_ context.Context) ([]domain.Zone, error) {
	out := make([]domain.Zone, len(c.zones))
	copy(out, c.zones)
	return out, nil
}
