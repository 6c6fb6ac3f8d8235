package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

const regionsJSON = `[
  {"name": "Centro", "fee": "5.00", "zip_rules": ["13295"], "zip_exclusions": ["13295900-13295999"]},
  {"name": "Jardim Paulista", "fee": "8.50", "neighborhoods": ["Jd Paulista"]}
]`

func TestParseRegionsKeepsOrderAndAssignsStableIDs(t *testing.T) {
	t.Parallel()

	first, err := ParseRegions([]byte(regionsJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	second, err := ParseRegions([]byte(regionsJSON))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	a, _ := first.ListActive(context.Background())
	b, _ := second.ListActive(context.Background())
	if len(a) != 2 || a[0].Name != "Centro" || a[1].Name != "Jardim Paulista" {
		t.Fatalf("unexpected regions %+v", a)
	}
	if a[0].ID != b[0].ID {
		t.Fatal("derived ids must be stable")
	}
	if !a[1].Fee.Equal(decimal.RequireFromString("8.5")) {
		t.Fatalf("unexpected fee %s", a[1].Fee)
	}

	if _, ok := Resolve("13295-950", "", a); ok {
		t.Fatal("excluded range must not resolve")
	}
	if m, ok := Resolve("", "Jd Paulista", a); !ok || m.RegionName != "Jardim Paulista" {
		t.Fatalf("expected neighborhood match, got %+v", m)
	}
}

func TestParseRegionsRejectsBadInput(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"name": "not a list"}`,
		`[{"name": " ", "fee": "1"}]`,
		`[{"name": "Centro", "fee": "-1"}]`,
	} {
		if _, err := ParseRegions([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "regions.json")
	if err := os.WriteFile(path, []byte(regionsJSON), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	src, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	regions, _ := src.ListActive(context.Background())
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions, got %d", len(regions))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
