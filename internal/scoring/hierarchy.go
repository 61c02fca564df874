package scoring

import (
	"fmt"
	"sort"

	"github.com/noah-isme/competency-api/internal/models"
)

// Hierarchy is a typed competency tree with parent lookups built once.
type Hierarchy struct {
	flavor    models.AssessmentFlavor
	topOrder  []string
	subOrder  []string
	tops      map[string]models.CompetencyTopGroup
	subs      map[string]models.CompetencySubGroup
	items     map[string]models.CompetencyItem
	subParent map[string]string
}

// NewHierarchy validates the reference rows and indexes them.
// Top groups are ignored for two-level flavors.
func NewHierarchy(tree models.CompetencyTree) (*Hierarchy, error) {
	if !tree.Flavor.Valid() {
		return nil, fmt.Errorf("%w: unknown flavor %q", ErrInvalidHierarchy, tree.Flavor)
	}
	h := &Hierarchy{
		flavor:    tree.Flavor,
		tops:      make(map[string]models.CompetencyTopGroup, len(tree.TopGroups)),
		subs:      make(map[string]models.CompetencySubGroup, len(tree.SubGroups)),
		items:     make(map[string]models.CompetencyItem, len(tree.Items)),
		subParent: make(map[string]string, len(tree.SubGroups)),
	}

	if tree.Flavor.ThreeLevel() {
		tops := append([]models.CompetencyTopGroup(nil), tree.TopGroups...)
		sort.SliceStable(tops, func(i, j int) bool { return tops[i].SortOrder < tops[j].SortOrder })
		for _, top := range tops {
			if _, dup := h.tops[top.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate top group %s", ErrInvalidHierarchy, top.ID)
			}
			h.tops[top.ID] = top
			h.topOrder = append(h.topOrder, top.ID)
		}
	}

	subs := append([]models.CompetencySubGroup(nil), tree.SubGroups...)
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SortOrder < subs[j].SortOrder })
	for _, sub := range subs {
		if _, dup := h.subs[sub.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate group %s", ErrInvalidHierarchy, sub.ID)
		}
		if tree.Flavor.ThreeLevel() {
			if sub.TopGroupID == nil {
				return nil, fmt.Errorf("%w: sub group %s has no top group", ErrInvalidHierarchy, sub.ID)
			}
			if _, ok := h.tops[*sub.TopGroupID]; !ok {
				return nil, fmt.Errorf("%w: sub group %s references unknown top group %s", ErrInvalidHierarchy, sub.ID, *sub.TopGroupID)
			}
			h.subParent[sub.ID] = *sub.TopGroupID
		}
		h.subs[sub.ID] = sub
		h.subOrder = append(h.subOrder, sub.ID)
	}

	for _, item := range tree.Items {
		if _, dup := h.items[item.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate item %s", ErrInvalidHierarchy, item.ID)
		}
		if _, ok := h.subs[item.SubGroupID]; !ok {
			return nil, fmt.Errorf("%w: item %s references unknown group %s", ErrInvalidHierarchy, item.ID, item.SubGroupID)
		}
		h.items[item.ID] = item
	}
	return h, nil
}

// Flavor returns the assessment flavor of the tree.
func (h *Hierarchy) Flavor() models.AssessmentFlavor { return h.flavor }

// HasItem reports whether the item belongs to the tree.
func (h *Hierarchy) HasItem(id string) bool {
	_, ok := h.items[id]
	return ok
}

// ItemIDs returns every item id ordered by group then item sort order.
func (h *Hierarchy) ItemIDs() []string {
	rank := make(map[string]int, len(h.subOrder))
	for i, id := range h.subOrder {
		rank[id] = i
	}
	items := make([]models.CompetencyItem, 0, len(h.items))
	for _, item := range h.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		ri, rj := rank[items[i].SubGroupID], rank[items[j].SubGroupID]
		if ri != rj {
			return ri < rj
		}
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].ID < items[j].ID
	})
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

// SubGroupOf returns the immediate parent group of an item.
func (h *Hierarchy) SubGroupOf(itemID string) (models.CompetencySubGroup, bool) {
	item, ok := h.items[itemID]
	if !ok {
		return models.CompetencySubGroup{}, false
	}
	sub, ok := h.subs[item.SubGroupID]
	return sub, ok
}

// TopGroupOf returns the top group of a sub group; only leadership trees have one.
func (h *Hierarchy) TopGroupOf(subGroupID string) (models.CompetencyTopGroup, bool) {
	topID, ok := h.subParent[subGroupID]
	if !ok {
		return models.CompetencyTopGroup{}, false
	}
	top, ok := h.tops[topID]
	return top, ok
}
