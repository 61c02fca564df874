package scoring

import "fmt"

// RatingScale bounds admissible levels. Zero is the "not yet rated" level for actuals.
type RatingScale struct {
	Min         int
	Max         int
	MinRequired int
}

// DefaultScale is the 0..10 scale with requirements starting at 1.
var DefaultScale = RatingScale{Min: 0, Max: 10, MinRequired: 1}

// CheckActual validates an employee's actual level.
func (s RatingScale) CheckActual(level int) error {
	if level < s.Min || level > s.Max {
		return fmt.Errorf("%w: actual level %d not in [%d,%d]", ErrLevelOutOfRange, level, s.Min, s.Max)
	}
	return nil
}

// CheckRequired validates a template's required level.
func (s RatingScale) CheckRequired(level int) error {
	if level < s.MinRequired || level > s.Max {
		return fmt.Errorf("%w: required level %d not in [%d,%d]", ErrLevelOutOfRange, level, s.MinRequired, s.Max)
	}
	return nil
}
