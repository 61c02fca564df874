package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/competency-api/internal/models"
)

// CompetencyRepository reads the active competency hierarchy.
type CompetencyRepository struct {
	db *sqlx.DB
}

// NewCompetencyRepository creates a new repository instance.
func NewCompetencyRepository(db *sqlx.DB) *CompetencyRepository {
	return &CompetencyRepository{db: db}
}

// LoadTree returns active top groups, sub groups and items for a flavor.
// A row is only active when every ancestor is active too.
func (r *CompetencyRepository) LoadTree(ctx context.Context, flavor models.AssessmentFlavor) (*models.CompetencyTree, error) {
	tree := &models.CompetencyTree{Flavor: flavor}

	if flavor.ThreeLevel() {
		const topQuery = `SELECT id, name, flavor, sort_order, is_active FROM competency_top_groups
        WHERE flavor = $1 AND is_active = TRUE ORDER BY sort_order, name`
		if err := r.db.SelectContext(ctx, &tree.TopGroups, topQuery, flavor); err != nil {
			return nil, fmt.Errorf("load top groups: %w", err)
		}
	}

	const subQuery = `SELECT sg.id, sg.name, sg.flavor, sg.top_group_id, sg.sort_order, sg.is_active
        FROM competency_sub_groups sg
        LEFT JOIN competency_top_groups tg ON tg.id = sg.top_group_id
        WHERE sg.flavor = $1 AND sg.is_active = TRUE AND (sg.top_group_id IS NULL OR tg.is_active = TRUE)
        ORDER BY sg.sort_order, sg.name`
	if err := r.db.SelectContext(ctx, &tree.SubGroups, subQuery, flavor); err != nil {
		return nil, fmt.Errorf("load sub groups: %w", err)
	}

	const itemQuery = `SELECT ci.id, ci.name, ci.sub_group_id, ci.sort_order, ci.is_active
        FROM competency_items ci
        JOIN competency_sub_groups sg ON sg.id = ci.sub_group_id
        LEFT JOIN competency_top_groups tg ON tg.id = sg.top_group_id
        WHERE sg.flavor = $1 AND sg.is_active = TRUE AND ci.is_active = TRUE
          AND (sg.top_group_id IS NULL OR tg.is_active = TRUE)
        ORDER BY sg.sort_order, ci.sort_order, ci.name`
	if err := r.db.SelectContext(ctx, &tree.Items, itemQuery, flavor); err != nil {
		return nil, fmt.Errorf("load competency items: %w", err)
	}
	return tree, nil
}

// LoadReferenced returns the given items with their sub groups and top groups,
// whether or not any of them is still active. Assessments score against the
// items frozen in their requirement snapshot, which may have been retired since.
func (r *CompetencyRepository) LoadReferenced(ctx context.Context, flavor models.AssessmentFlavor, itemIDs []string) (*models.CompetencyTree, error) {
	tree := &models.CompetencyTree{Flavor: flavor}
	if len(itemIDs) == 0 {
		return tree, nil
	}
	ids := pq.Array(itemIDs)

	if flavor.ThreeLevel() {
		const topQuery = `SELECT DISTINCT tg.id, tg.name, tg.flavor, tg.sort_order, tg.is_active
        FROM competency_top_groups tg
        JOIN competency_sub_groups sg ON sg.top_group_id = tg.id
        JOIN competency_items ci ON ci.sub_group_id = sg.id
        WHERE tg.flavor = $1 AND ci.id = ANY($2)
        ORDER BY tg.sort_order, tg.name`
		if err := r.db.SelectContext(ctx, &tree.TopGroups, topQuery, flavor, ids); err != nil {
			return nil, fmt.Errorf("load referenced top groups: %w", err)
		}
	}

	const subQuery = `SELECT DISTINCT sg.id, sg.name, sg.flavor, sg.top_group_id, sg.sort_order, sg.is_active
        FROM competency_sub_groups sg
        JOIN competency_items ci ON ci.sub_group_id = sg.id
        WHERE sg.flavor = $1 AND ci.id = ANY($2)
        ORDER BY sg.sort_order, sg.name`
	if err := r.db.SelectContext(ctx, &tree.SubGroups, subQuery, flavor, ids); err != nil {
		return nil, fmt.Errorf("load referenced sub groups: %w", err)
	}

	const itemQuery = `SELECT ci.id, ci.name, ci.sub_group_id, ci.sort_order, ci.is_active
        FROM competency_items ci
        JOIN competency_sub_groups sg ON sg.id = ci.sub_group_id
        WHERE sg.flavor = $1 AND ci.id = ANY($2)
        ORDER BY ci.sort_order, ci.name`
	if err := r.db.SelectContext(ctx, &tree.Items, itemQuery, flavor, ids); err != nil {
		return nil, fmt.Errorf("load referenced items: %w", err)
	}
	return tree, nil
}
