package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/repository"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

func fullCoreRatings() []TemplateRatingRequest {
	return []TemplateRatingRequest{
		{ItemID: "D", RequiredLevel: 4},
		{ItemID: "A", RequiredLevel: 5},
		{ItemID: "B", RequiredLevel: 3},
		{ItemID: "C", RequiredLevel: 2},
	}
}

func newTemplateService(repo *mockTemplateRepo) *TemplateService {
	return NewTemplateService(repo, newStubHierarchies(), scoring.DefaultScale, validator.New(), zap.NewNop())
}

func TestTemplateServiceCreateNormalizesAndOrders(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := newTemplateService(repo)

	tpl, err := svc.Create(context.Background(), CreateTemplateRequest{
		Position:    " Engineer ",
		GradeLevels: []string{"G3", "G1", "G3", " g1 ", ""},
		Flavor:      models.FlavorCore,
		Ratings:     fullCoreRatings(),
	})
	require.NoError(t, err)
	assert.Equal(t, "Engineer", tpl.Position)
	assert.Equal(t, pq.StringArray{"G1", "G3", "g1"}, tpl.GradeLevels)
	assert.True(t, tpl.IsActive)
	require.Len(t, tpl.Ratings, 4)
	assert.Equal(t, []string{"A", "B", "C", "D"}, []string{tpl.Ratings[0].ItemID, tpl.Ratings[1].ItemID, tpl.Ratings[2].ItemID, tpl.Ratings[3].ItemID})
}

func TestTemplateServiceCreateRejectsSecondActive(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := newTemplateService(repo)
	req := CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()}

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), req)
	assertCode(t, err, appErrors.ErrDuplicateTemplate.Code)

	req.IsActive = boolPtr(false)
	_, err = svc.Create(context.Background(), req)
	require.NoError(t, err)
}

func TestTemplateServiceCreateMapsUniqueIndexViolation(t *testing.T) {
	repo := newMockTemplateRepo()
	repo.createErr = fmt.Errorf("insert template: %w", repository.ErrDuplicate)
	svc := newTemplateService(repo)

	_, err := svc.Create(context.Background(), CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()})
	assertCode(t, err, appErrors.ErrDuplicateTemplate.Code)
}

func TestTemplateServiceCreateValidation(t *testing.T) {
	svc := newTemplateService(newMockTemplateRepo())
	base := func() CreateTemplateRequest {
		return CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()}
	}

	cases := map[string]func(*CreateTemplateRequest){
		"empty grade levels": func(r *CreateTemplateRequest) { r.GradeLevels = nil },
		"blank grade levels": func(r *CreateTemplateRequest) { r.GradeLevels = []string{" ", ""} },
		"unknown flavor":     func(r *CreateTemplateRequest) { r.Flavor = "TECHNICAL" },
		"unknown item":       func(r *CreateTemplateRequest) { r.Ratings = append(r.Ratings, TemplateRatingRequest{ItemID: "Z", RequiredLevel: 2}) },
		"missing item":       func(r *CreateTemplateRequest) { r.Ratings = r.Ratings[:3] },
		"duplicate item":     func(r *CreateTemplateRequest) { r.Ratings = append(r.Ratings, TemplateRatingRequest{ItemID: "A", RequiredLevel: 2}) },
		"zero requirement":   func(r *CreateTemplateRequest) { r.Ratings[0].RequiredLevel = 0 },
		"above scale":        func(r *CreateTemplateRequest) { r.Ratings[0].RequiredLevel = 11 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base()
			mutate(&req)
			_, err := svc.Create(context.Background(), req)
			assertCode(t, err, appErrors.ErrValidation.Code)
		})
	}
}

func TestTemplateServiceUpdateReplacesRatings(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := newTemplateService(repo)
	tpl, err := svc.Create(context.Background(), CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()})
	require.NoError(t, err)

	ratings := fullCoreRatings()
	ratings[1].RequiredLevel = 7
	updated, err := svc.Update(context.Background(), tpl.ID, UpdateTemplateRequest{GradeLevels: []string{"G2"}, Ratings: ratings})
	require.NoError(t, err)
	assert.Equal(t, pq.StringArray{"G2"}, updated.GradeLevels)
	require.Len(t, updated.Ratings, 4)
	assert.Equal(t, 7, updated.Ratings[0].RequiredLevel)
}

func TestTemplateServiceReactivationChecksDuplicates(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := newTemplateService(repo)
	req := CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()}
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	req.IsActive = boolPtr(false)
	inactive, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), inactive.ID, UpdateTemplateRequest{GradeLevels: []string{"G1"}, Ratings: fullCoreRatings(), IsActive: boolPtr(true)})
	assertCode(t, err, appErrors.ErrDuplicateTemplate.Code)
}

func TestTemplateServiceDeleteBlockedWhenReferenced(t *testing.T) {
	repo := newMockTemplateRepo()
	svc := newTemplateService(repo)
	tpl, err := svc.Create(context.Background(), CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()})
	require.NoError(t, err)

	repo.assessments[tpl.ID] = 2
	assertCode(t, svc.Delete(context.Background(), tpl.ID), appErrors.ErrConflict.Code)

	repo.assessments[tpl.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), tpl.ID))
	assertCode(t, svc.Delete(context.Background(), tpl.ID), appErrors.ErrNotFound.Code)
}

func TestTemplateServiceHierarchyFailureSurfaces(t *testing.T) {
	h := newStubHierarchies()
	h.err = appErrors.Clone(appErrors.ErrConfiguration, "competency hierarchy is inconsistent")
	svc := NewTemplateService(newMockTemplateRepo(), h, scoring.DefaultScale, nil, nil)

	_, err := svc.Create(context.Background(), CreateTemplateRequest{Position: "Engineer", GradeLevels: []string{"G1"}, Flavor: models.FlavorCore, Ratings: fullCoreRatings()})
	assertCode(t, err, appErrors.ErrConfiguration.Code)
}
