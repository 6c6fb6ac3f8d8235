package delivery

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Region is an author-managed delivery fee zone. Rule order inside the slice passed to
// Resolve is significant.
type Region struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Fee           decimal.Decimal `json:"fee"`
	ZipRules      []string        `json:"zip_rules,omitempty"`
	ZipExclusions []string        `json:"zip_exclusions,omitempty"`
	Neighborhoods []string        `json:"neighborhoods,omitempty"`
}

// MatchKind records which step of the algorithm produced a match.
type MatchKind string

const (
	MatchByPostalCode   MatchKind = "postal_code"
	MatchByNeighborhood MatchKind = "neighborhood"
)

// Match is a resolved delivery fee.
type Match struct {
	RegionID   uuid.UUID       `json:"region_id"`
	RegionName string          `json:"region_name"`
	Fee        decimal.Decimal `json:"fee"`
	Kind       MatchKind       `json:"kind"`
}

// Resolve finds the first region serving the address. ok is false when delivery is not
// available; that is a business outcome, not an error.
func Resolve(rawPostalCode, rawNeighborhood string, regions []Region) (Match, bool) {
	code := DigitsOnly(rawPostalCode)
	if len(code) == PostalCodeLength {
		for _, region := range regions {
			if matchesPostalCode(code, region) {
				return newMatch(region, MatchByPostalCode), true
			}
		}
	}

	neighborhood := NormalizeText(rawNeighborhood)
	if utf8.RuneCountInString(neighborhood) < minNeighborhoodLength {
		return Match{}, false
	}
	for _, region := range regions {
		if matchesNeighborhood(neighborhood, region) {
			return newMatch(region, MatchByNeighborhood), true
		}
	}
	return Match{}, false
}

func newMatch(region Region, kind MatchKind) Match {
	return Match{
		RegionID:   region.ID,
		RegionName: region.Name,
		Fee:        region.Fee,
		Kind:       kind,
	}
}

func matchesPostalCode(code string, region Region) bool {
	for _, exclusion := range region.ZipExclusions {
		if ruleMatches(code, exclusion) {
			return false
		}
	}
	for _, rule := range region.ZipRules {
		if ruleMatches(code, rule) {
			return true
		}
	}
	return false
}

// ruleMatches evaluates a prefix rule ("13295") or an inclusive numeric range
// ("13295000-13295299"). Rules that normalize to nothing never match.
func ruleMatches(code, rule string) bool {
	if lo, hi, isRange := strings.Cut(rule, "-"); isRange {
		return inRange(code, DigitsOnly(lo), DigitsOnly(hi))
	}
	prefix := DigitsOnly(rule)
	if prefix == "" {
		return false
	}
	return strings.HasPrefix(code, prefix)
}

func inRange(code, lo, hi string) bool {
	if lo == "" || hi == "" {
		return false
	}
	value, err := strconv.ParseUint(code, 10, 64)
	if err != nil {
		return false
	}
	start, err := strconv.ParseUint(lo, 10, 64)
	if err != nil {
		return false
	}
	end, err := strconv.ParseUint(hi, 10, 64)
	if err != nil {
		return false
	}
	return value >= start && value <= end
}

func matchesNeighborhood(input string, region Region) bool {
	for _, raw := range region.Neighborhoods {
		candidate := NormalizeText(raw)
		if candidate == "" {
			continue
		}
		if candidate == input || strings.Contains(input, candidate) {
			return true
		}
	}
	name := NormalizeText(region.Name)
	if name == "" {
		return false
	}
	return name == input || strings.Contains(input, name)
}
