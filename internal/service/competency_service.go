package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

type competencyRepository interface {
	LoadTree(ctx context.Context, flavor models.AssessmentFlavor) (*models.CompetencyTree, error)
	LoadReferenced(ctx context.Context, flavor models.AssessmentFlavor, itemIDs []string) (*models.CompetencyTree, error)
}

// CompetencyService exposes the active competency hierarchy per flavor.
type CompetencyService struct {
	repo   competencyRepository
	logger *zap.Logger
}

// NewCompetencyService constructs the service.
func NewCompetencyService(repo competencyRepository, logger *zap.Logger) *CompetencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompetencyService{repo: repo, logger: logger}
}

// Tree returns the active reference rows for a flavor.
func (s *CompetencyService) Tree(ctx context.Context, flavor models.AssessmentFlavor) (*models.CompetencyTree, error) {
	if !flavor.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown assessment flavor %q", flavor))
	}
	tree, err := s.repo.LoadTree(ctx, flavor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competency hierarchy")
	}
	return tree, nil
}

// Hierarchy builds the typed traversal structure used by the scoring engine.
func (s *CompetencyService) Hierarchy(ctx context.Context, flavor models.AssessmentFlavor) (*scoring.Hierarchy, error) {
	tree, err := s.Tree(ctx, flavor)
	if err != nil {
		return nil, err
	}
	return s.build(flavor, tree)
}

// HierarchyFor builds the active hierarchy extended with the given items and
// their ancestors, including rows that have been deactivated since.
func (s *CompetencyService) HierarchyFor(ctx context.Context, flavor models.AssessmentFlavor, itemIDs []string) (*scoring.Hierarchy, error) {
	tree, err := s.Tree(ctx, flavor)
	if err != nil {
		return nil, err
	}
	missing := make([]string, 0, len(itemIDs))
	seen := make(map[string]struct{}, len(tree.Items))
	for _, item := range tree.Items {
		seen[item.ID] = struct{}{}
	}
	for _, id := range itemIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		referenced, err := s.repo.LoadReferenced(ctx, flavor, missing)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competency hierarchy")
		}
		mergeTree(tree, referenced)
	}
	return s.build(flavor, tree)
}

func (s *CompetencyService) build(flavor models.AssessmentFlavor, tree *models.CompetencyTree) (*scoring.Hierarchy, error) {
	h, err := scoring.NewHierarchy(*tree)
	if err != nil {
		s.logger.Error("competency hierarchy invalid", zap.String("flavor", string(flavor)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, "competency hierarchy is inconsistent")
	}
	return h, nil
}

// mergeTree appends rows from extra whose ids are not already in tree.
func mergeTree(tree, extra *models.CompetencyTree) {
	tops := make(map[string]struct{}, len(tree.TopGroups))
	for _, top := range tree.TopGroups {
		tops[top.ID] = struct{}{}
	}
	for _, top := range extra.TopGroups {
		if _, ok := tops[top.ID]; !ok {
			tree.TopGroups = append(tree.TopGroups, top)
		}
	}
	subs := make(map[string]struct{}, len(tree.SubGroups))
	for _, sub := range tree.SubGroups {
		subs[sub.ID] = struct{}{}
	}
	for _, sub := range extra.SubGroups {
		if _, ok := subs[sub.ID]; !ok {
			tree.SubGroups = append(tree.SubGroups, sub)
		}
	}
	items := make(map[string]struct{}, len(tree.Items))
	for _, item := range tree.Items {
		items[item.ID] = struct{}{}
	}
	for _, item := range extra.Items {
		if _, ok := items[item.ID]; !ok {
			tree.Items = append(tree.Items, item)
		}
	}
}
