package scoring_test

import (
	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/scoring"
)

func band(letter string, min, max float64) models.GradeBand {
	return models.GradeBand{ID: "band-" + letter, Letter: letter, MinPercentage: min, MaxPercentage: max, IsActive: true}
}

func standardBands() *scoring.GradeBandTable {
	return scoring.NewGradeBandTable([]models.GradeBand{
		band("A", 90, 100),
		band("B+", 80, 90),
		band("B", 70, 80),
		band("C", 60, 70),
		band("D", 0, 60),
	})
}

func strPtr(v string) *string { return &v }

func coreTree() models.CompetencyTree {
	return models.CompetencyTree{
		Flavor: models.FlavorCore,
		SubGroups: []models.CompetencySubGroup{
			{ID: "g", Name: "G", Flavor: models.FlavorCore, SortOrder: 1, IsActive: true},
			{ID: "h", Name: "H", Flavor: models.FlavorCore, SortOrder: 2, IsActive: true},
		},
		Items: []models.CompetencyItem{
			{ID: "A", SubGroupID: "g", SortOrder: 1},
			{ID: "B", SubGroupID: "g", SortOrder: 2},
			{ID: "C", SubGroupID: "g", SortOrder: 3},
			{ID: "D", SubGroupID: "h", SortOrder: 1},
		},
	}
}

func leadershipTree() models.CompetencyTree {
	return models.CompetencyTree{
		Flavor: models.FlavorLeadership,
		TopGroups: []models.CompetencyTopGroup{
			{ID: "lead", Name: "Leading People", SortOrder: 1},
			{ID: "strat", Name: "Strategy", SortOrder: 2},
		},
		SubGroups: []models.CompetencySubGroup{
			{ID: "coach", Name: "Coaching", TopGroupID: strPtr("lead"), SortOrder: 1},
			{ID: "delegate", Name: "Delegation", TopGroupID: strPtr("lead"), SortOrder: 2},
			{ID: "vision", Name: "Vision", TopGroupID: strPtr("strat"), SortOrder: 3},
		},
		Items: []models.CompetencyItem{
			{ID: "c1", SubGroupID: "coach", SortOrder: 1},
			{ID: "c2", SubGroupID: "coach", SortOrder: 2},
			{ID: "d1", SubGroupID: "delegate", SortOrder: 1},
			{ID: "v1", SubGroupID: "vision", SortOrder: 1},
			{ID: "v2", SubGroupID: "vision", SortOrder: 2},
			{ID: "v3", SubGroupID: "vision", SortOrder: 3},
		},
	}
}
