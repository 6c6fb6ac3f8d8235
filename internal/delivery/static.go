package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// StaticSource serves a fixed rule set, used when running without a database.
type StaticSource struct {
	regions []Region
}

// NewStaticSource keeps regions in the given order.
func NewStaticSource(regions []Region) *StaticSource {
	return &StaticSource{regions: append([]Region(nil), regions...)}
}

// LoadFile reads a JSON array of regions. Order in the file is resolution order. Regions
// without an id get one derived from their name so it stays stable across restarts.
func LoadFile(path string) (*StaticSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	return ParseRegions(raw)
}

// ParseRegions decodes and checks a JSON region list.
func ParseRegions(raw []byte) (*StaticSource, error) {
	var regions []Region
	if err := json.Unmarshal(raw, &regions); err != nil {
		return nil, fmt.Errorf("decode regions: %w", err)
	}
	for i := range regions {
		r := &regions[i]
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("region %d: name required", i)
		}
		if r.Fee.IsNegative() {
			return nil, fmt.Errorf("region %q: fee must not be negative", r.Name)
		}
		if r.ID == uuid.Nil {
			r.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("forno-region:"+r.Name))
		}
	}
	return NewStaticSource(regions), nil
}

// ListActive implements the region source used by checkout.
func (s *StaticSource) ListActive(context.Context) ([]Region, error) {
	return append([]Region(nil), s.regions...), nil
}
