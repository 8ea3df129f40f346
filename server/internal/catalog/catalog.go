// Package catalog holds the seed dataset shipped with the server: the subnet
// baseline, news headlines, research reports and academy lessons. The data is
// embedded in the binary and decoded once at startup; nothing here is ever
// written back.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/taoscope/taoscope/pkg/types"
)

//go:embed data/*.json
var files embed.FS

// Catalog is the decoded seed dataset. Callers must treat it as read-only.
type Catalog struct {
	Subnets  []types.Subnet
	News     []types.NewsItem
	Research []types.ResearchItem
	Academy  map[string]types.Lesson
}

// Load decodes the embedded seed files and validates the subnet baseline.
func Load() (*Catalog, error) {
	c := &Catalog{}
	for name, dst := range map[string]any{
		"data/subnets.json":  &c.Subnets,
		"data/news.json":     &c.News,
		"data/research.json": &c.Research,
		"data/academy.json":  &c.Academy,
	} {
		if err := decode(name, dst); err != nil {
			return nil, err
		}
	}
	if err := validate(c.Subnets); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return c, nil
}

// Baseline returns a copy of the subnet baseline so callers may mutate the
// records they receive.
func (c *Catalog) Baseline() []types.Subnet {
	out := make([]types.Subnet, len(c.Subnets))
	copy(out, c.Subnets)
	return out
}

func decode(name string, dst any) error {
	data, err := files.ReadFile(name)
	if err != nil {
		return fmt.Errorf("catalog: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	return nil
}

// validate enforces that subnet ids are positive and unique; the id is the join
// key against both live sources.
func validate(subnets []types.Subnet) error {
	seen := make(map[int]struct{}, len(subnets))
	for i, s := range subnets {
		if s.ID <= 0 {
			return fmt.Errorf("subnets[%d]: id %d must be positive", i, s.ID)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("subnets[%d]: duplicate id %d", i, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}
