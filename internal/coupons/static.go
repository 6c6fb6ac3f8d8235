package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StaticRegistry serves coupons configured at startup, used when no database is available.
type StaticRegistry struct {
	records map[string]Record
}

// ParseStatic reads "CODE:PERCENT" pairs separated by commas, e.g. "TESTE10:10,PIZZA5:5".
func ParseStatic(spec string) (*StaticRegistry, error) {
	reg := &StaticRegistry{records: map[string]Record{}}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rawCode, rawPercent, ok := strings.Cut(entry, ":")
		code := NormalizeCode(rawCode)
		if !ok || code == "" {
			return nil, fmt.Errorf("invalid static coupon %q", entry)
		}
		percent, err := decimal.NewFromString(strings.TrimSpace(rawPercent))
		if err != nil {
			return nil, fmt.Errorf("invalid static coupon percent %q: %w", entry, err)
		}
		reg.records[code] = Record{Code: code, DiscountPercent: percent, Active: true}
	}
	return reg, nil
}

// Fetch implements Lookup.
func (s *StaticRegistry) Fetch(_ context.Context, code string) (*Record, error) {
	record, ok := s.records[NormalizeCode(code)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Len returns the number of configured coupons.
func (s *StaticRegistry) Len() int {
	return len(s.records)
}
