// Package scoring compares required and actual competency levels and rolls the
// gaps up through the competency hierarchy into graded percentages.
package scoring

import (
	"fmt"
	"math"

	"github.com/noah-isme/competency-api/internal/models"
)

// Standing labels the sign of a gap.
type Standing string

const (
	StandingExceeds Standing = "exceeds"
	StandingMeets   Standing = "meets"
	StandingBelow   Standing = "below"
)

// Rating pairs a required level with an actual level for one item.
type Rating struct {
	ItemID   string
	Required int
	Actual   int
}

// Gap is actual minus required; positive exceeds, zero meets, negative is below.
func (r Rating) Gap() int {
	return r.Actual - r.Required
}

// StandingOf labels a gap.
func StandingOf(gap int) Standing {
	switch {
	case gap > 0:
		return StandingExceeds
	case gap < 0:
		return StandingBelow
	default:
		return StandingMeets
	}
}

// ItemScore is the per-item outcome.
type ItemScore struct {
	ItemID     string   `json:"item_id"`
	SubGroupID string   `json:"sub_group_id"`
	Required   int      `json:"required_level"`
	Actual     int      `json:"actual_level"`
	Gap        int      `json:"gap"`
	Standing   Standing `json:"standing"`
}

// GroupScore is a roll-up of required and actual totals for a group.
type GroupScore struct {
	GroupID       string            `json:"group_id"`
	Name          string            `json:"name"`
	Level         models.GroupLevel `json:"level"`
	ParentID      string            `json:"parent_id,omitempty"`
	PositionTotal int               `json:"position_total"`
	EmployeeTotal int               `json:"employee_total"`
	Percentage    float64           `json:"percentage"`
	LetterGrade   string            `json:"letter_grade"`

	raw float64
}

// RawPercentage is the unrounded percentage the letter grade was resolved from.
func (g GroupScore) RawPercentage() float64 { return g.raw }

// Result is the full scoring output.
type Result struct {
	Items              []ItemScore  `json:"per_item"`
	Groups             []GroupScore `json:"group_scores"`
	PositionTotal      int          `json:"position_total"`
	EmployeeTotal      int          `json:"employee_total"`
	OverallPercentage  float64      `json:"overall_percentage"`
	OverallLetterGrade string       `json:"overall_letter_grade"`

	overallRaw float64
}

// OverallRaw is the unrounded overall percentage.
func (r *Result) OverallRaw() float64 { return r.overallRaw }

// TopLevelGroups returns the groups the overall percentage is summed over.
func (r *Result) TopLevelGroups() []GroupScore {
	var level models.GroupLevel = models.GroupLevelSub
	for _, g := range r.Groups {
		if g.Level == models.GroupLevelTop {
			level = models.GroupLevelTop
			break
		}
	}
	out := make([]GroupScore, 0, len(r.Groups))
	for _, g := range r.Groups {
		if g.Level == level {
			out = append(out, g)
		}
	}
	return out
}

// Percentage returns employee/position*100, or 0 when nothing is required.
func Percentage(employeeTotal, positionTotal int) float64 {
	if positionTotal <= 0 {
		return 0
	}
	return float64(employeeTotal*100) / float64(positionTotal)
}

// RoundPercentage rounds to one decimal place for display and storage.
func RoundPercentage(p float64) float64 {
	return math.Round(p*10) / 10
}

// gradeInput caps over-achievement at 100 so it grades into the top band.
func gradeInput(p float64) float64 {
	if p > maxPercentage {
		return maxPercentage
	}
	return p
}

type accumulator struct {
	position int
	employee int
	seen     bool
}

// Compute scores ratings against the hierarchy and grade table.
// Letter grades are resolved from unrounded percentages; rounding only affects the stored value.
func Compute(ratings []Rating, h *Hierarchy, bands *GradeBandTable) (*Result, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: hierarchy required", ErrInvalidHierarchy)
	}
	if bands == nil {
		return nil, fmt.Errorf("%w: grade band table required", ErrConfiguration)
	}

	result := &Result{Items: make([]ItemScore, 0, len(ratings))}
	subTotals := make(map[string]*accumulator, len(h.subOrder))
	seen := make(map[string]struct{}, len(ratings))

	for _, r := range ratings {
		if _, dup := seen[r.ItemID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, r.ItemID)
		}
		seen[r.ItemID] = struct{}{}
		sub, ok := h.SubGroupOf(r.ItemID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, r.ItemID)
		}
		gap := r.Gap()
		result.Items = append(result.Items, ItemScore{
			ItemID:     r.ItemID,
			SubGroupID: sub.ID,
			Required:   r.Required,
			Actual:     r.Actual,
			Gap:        gap,
			Standing:   StandingOf(gap),
		})
		acc := subTotals[sub.ID]
		if acc == nil {
			acc = &accumulator{}
			subTotals[sub.ID] = acc
		}
		acc.position += r.Required
		acc.employee += r.Actual
		acc.seen = true
	}

	topTotals := make(map[string]*accumulator, len(h.topOrder))
	for _, subID := range h.subOrder {
		acc := subTotals[subID]
		if acc == nil || !acc.seen {
			continue
		}
		sub := h.subs[subID]
		group := GroupScore{
			GroupID:       sub.ID,
			Name:          sub.Name,
			Level:         models.GroupLevelSub,
			PositionTotal: acc.position,
			EmployeeTotal: acc.employee,
		}
		if top, ok := h.TopGroupOf(subID); ok {
			group.ParentID = top.ID
			t := topTotals[top.ID]
			if t == nil {
				t = &accumulator{}
				topTotals[top.ID] = t
			}
			// top groups sum sub group totals, never raw items
			t.position += group.PositionTotal
			t.employee += group.EmployeeTotal
			t.seen = true
		}
		if err := grade(&group, bands); err != nil {
			return nil, err
		}
		result.Groups = append(result.Groups, group)
	}

	for _, topID := range h.topOrder {
		acc := topTotals[topID]
		if acc == nil || !acc.seen {
			continue
		}
		top := h.tops[topID]
		group := GroupScore{
			GroupID:       top.ID,
			Name:          top.Name,
			Level:         models.GroupLevelTop,
			PositionTotal: acc.position,
			EmployeeTotal: acc.employee,
		}
		if err := grade(&group, bands); err != nil {
			return nil, err
		}
		result.Groups = append(result.Groups, group)
	}

	for _, g := range result.TopLevelGroups() {
		result.PositionTotal += g.PositionTotal
		result.EmployeeTotal += g.EmployeeTotal
	}
	result.overallRaw = Percentage(result.EmployeeTotal, result.PositionTotal)
	band, err := bands.GradeFor(gradeInput(result.overallRaw))
	if err != nil {
		return nil, fmt.Errorf("overall grade: %w", err)
	}
	result.OverallPercentage = RoundPercentage(result.overallRaw)
	result.OverallLetterGrade = band.Letter
	return result, nil
}

func grade(g *GroupScore, bands *GradeBandTable) error {
	g.raw = Percentage(g.EmployeeTotal, g.PositionTotal)
	band, err := bands.GradeFor(gradeInput(g.raw))
	if err != nil {
		return fmt.Errorf("group %s grade: %w", g.Name, err)
	}
	g.Percentage = RoundPercentage(g.raw)
	g.LetterGrade = band.Letter
	return nil
}
