package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/noah-isme/competency-api/internal/models"
)

const (
	minPercentage = 0.0
	maxPercentage = 100.0
)

// Contains reports whether p falls inside band b.
// Bands are closed below and open above; a band ending at 100 is closed at 100.
func Contains(b models.GradeBand, p float64) bool {
	if p < b.MinPercentage {
		return false
	}
	if p < b.MaxPercentage {
		return true
	}
	return b.MaxPercentage == maxPercentage && p == maxPercentage
}

// Overlaps reports whether two bands share any percentage.
func Overlaps(a, b models.GradeBand) bool {
	return a.MinPercentage < b.MaxPercentage && b.MinPercentage < a.MaxPercentage
}

// CheckBand validates a band's own bounds.
func CheckBand(b models.GradeBand) error {
	if b.MinPercentage < minPercentage || b.MaxPercentage > maxPercentage {
		return fmt.Errorf("band %q must lie within [0,100]", b.Letter)
	}
	if b.MinPercentage >= b.MaxPercentage {
		return fmt.Errorf("band %q min %.2f must be below max %.2f", b.Letter, b.MinPercentage, b.MaxPercentage)
	}
	return nil
}

// GradeBandTable is an immutable set of active grade bands.
type GradeBandTable struct {
	bands []models.GradeBand
}

// NewGradeBandTable copies and orders the bands by lower bound.
func NewGradeBandTable(bands []models.GradeBand) *GradeBandTable {
	sorted := make([]models.GradeBand, len(bands))
	copy(sorted, bands)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MinPercentage == sorted[j].MinPercentage {
			return sorted[i].MaxPercentage < sorted[j].MaxPercentage
		}
		return sorted[i].MinPercentage < sorted[j].MinPercentage
	})
	return &GradeBandTable{bands: sorted}
}

// Bands returns the ordered bands.
func (t *GradeBandTable) Bands() []models.GradeBand {
	out := make([]models.GradeBand, len(t.bands))
	copy(out, t.bands)
	return out
}

// GradeFor resolves the single band containing p.
func (t *GradeBandTable) GradeFor(p float64) (models.GradeBand, error) {
	if p < minPercentage || p > maxPercentage || math.IsNaN(p) {
		return models.GradeBand{}, fmt.Errorf("%w: %v", ErrInvalidPercentage, p)
	}
	var (
		match models.GradeBand
		hits  int
	)
	for _, b := range t.bands {
		if Contains(b, p) {
			match = b
			hits++
		}
	}
	switch hits {
	case 1:
		return match, nil
	case 0:
		return models.GradeBand{}, fmt.Errorf("%w: no band contains %.4f", ErrConfiguration, p)
	default:
		return models.GradeBand{}, fmt.Errorf("%w: %d bands contain %.4f", ErrConfiguration, hits, p)
	}
}

// Range is a closed-open percentage interval.
type Range struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Coverage describes how completely a table tiles [0,100].
type Coverage struct {
	Complete bool     `json:"complete"`
	Gaps     []Range  `json:"gaps,omitempty"`
	Overlaps []Range  `json:"overlaps,omitempty"`
	Letters  []string `json:"letters"`
}

// Coverage walks the ordered bands and reports gaps and overlaps.
func (t *GradeBandTable) Coverage() Coverage {
	report := Coverage{Letters: make([]string, 0, len(t.bands))}
	cursor := minPercentage
	for _, b := range t.bands {
		report.Letters = append(report.Letters, b.Letter)
		if b.MinPercentage > cursor {
			report.Gaps = append(report.Gaps, Range{From: cursor, To: b.MinPercentage})
		}
		if b.MinPercentage < cursor {
			end := cursor
			if b.MaxPercentage < end {
				end = b.MaxPercentage
			}
			report.Overlaps = append(report.Overlaps, Range{From: b.MinPercentage, To: end})
		}
		if b.MaxPercentage > cursor {
			cursor = b.MaxPercentage
		}
	}
	if cursor < maxPercentage {
		report.Gaps = append(report.Gaps, Range{From: cursor, To: maxPercentage})
	}
	report.Complete = len(t.bands) > 0 && len(report.Gaps) == 0 && len(report.Overlaps) == 0
	return report
}
