package scoring

import "errors"

var (
	// ErrInvalidPercentage is returned when a lookup percentage is outside [0,100].
	ErrInvalidPercentage = errors.New("percentage out of range")
	// ErrConfiguration marks a grade band table with gaps or overlaps.
	ErrConfiguration = errors.New("grade band configuration error")
	// ErrUnknownItem is returned when a rating references an item missing from the hierarchy.
	ErrUnknownItem = errors.New("item not in hierarchy")
	// ErrDuplicateItem is returned when the same item is rated twice.
	ErrDuplicateItem = errors.New("item rated more than once")
	// ErrInvalidHierarchy is returned when reference data does not form a valid tree.
	ErrInvalidHierarchy = errors.New("invalid competency hierarchy")
	// ErrLevelOutOfRange is returned when a level falls outside the rating scale.
	ErrLevelOutOfRange = errors.New("level outside rating scale")
)
