package models

// AssessmentFlavor selects the competency hierarchy an assessment is scored against.
type AssessmentFlavor string

const (
	// FlavorCore assesses core competencies with a two-level Item -> Group tree.
	FlavorCore AssessmentFlavor = "CORE"
	// FlavorBehavioral assesses behavioral competencies with a two-level Item -> Group tree.
	FlavorBehavioral AssessmentFlavor = "BEHAVIORAL"
	// FlavorLeadership assesses leadership competencies with a three-level Item -> SubGroup -> TopGroup tree.
	FlavorLeadership AssessmentFlavor = "LEADERSHIP"
)

// Valid reports whether the flavor is known.
func (f AssessmentFlavor) Valid() bool {
	switch f {
	case FlavorCore, FlavorBehavioral, FlavorLeadership:
		return true
	}
	return false
}

// ThreeLevel reports whether sub groups roll up into top groups.
func (f AssessmentFlavor) ThreeLevel() bool {
	return f == FlavorLeadership
}

// CompetencyTopGroup is the root of a leadership hierarchy branch.
type CompetencyTopGroup struct {
	ID        string           `db:"id" json:"id"`
	Name      string           `db:"name" json:"name"`
	Flavor    AssessmentFlavor `db:"flavor" json:"flavor"`
	SortOrder int              `db:"sort_order" json:"sort_order"`
	IsActive  bool             `db:"is_active" json:"is_active"`
}

// CompetencySubGroup groups items; TopGroupID is set only for leadership.
type CompetencySubGroup struct {
	ID         string           `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	Flavor     AssessmentFlavor `db:"flavor" json:"flavor"`
	TopGroupID *string          `db:"top_group_id" json:"top_group_id,omitempty"`
	SortOrder  int              `db:"sort_order" json:"sort_order"`
	IsActive   bool             `db:"is_active" json:"is_active"`
}

// CompetencyItem is an assessable leaf.
type CompetencyItem struct {
	ID         string `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	SubGroupID string `db:"sub_group_id" json:"sub_group_id"`
	SortOrder  int    `db:"sort_order" json:"sort_order"`
	IsActive   bool   `db:"is_active" json:"is_active"`
}

// CompetencyTree bundles the active reference rows for one flavor.
type CompetencyTree struct {
	Flavor    AssessmentFlavor     `json:"flavor"`
	TopGroups []CompetencyTopGroup `json:"top_groups,omitempty"`
	SubGroups []CompetencySubGroup `json:"sub_groups"`
	Items     []CompetencyItem     `json:"items"`
}
