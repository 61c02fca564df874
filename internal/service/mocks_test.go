package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/competency-api/internal/models"
	"github.com/noah-isme/competency-api/internal/repository"
	"github.com/noah-isme/competency-api/internal/scoring"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
	"github.com/noah-isme/competency-api/pkg/jobs"
)

func strPtr(s string) *string { return &s }

func float64Ptr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }

func gradeBand(letter string, min, max float64) models.GradeBand {
	return models.GradeBand{ID: "band-" + letter, Letter: letter, MinPercentage: min, MaxPercentage: max, IsActive: true}
}

func standardBands() []models.GradeBand {
	return []models.GradeBand{
		gradeBand("A", 90, 100),
		gradeBand("B+", 80, 90),
		gradeBand("B", 70, 80),
		gradeBand("C", 60, 70),
		gradeBand("D", 0, 60),
	}
}

// coreTree has group G with items A, B, C and group H with item D.
func coreTree() models.CompetencyTree {
	return models.CompetencyTree{
		Flavor: models.FlavorCore,
		SubGroups: []models.CompetencySubGroup{
			{ID: "g", Name: "G", Flavor: models.FlavorCore, SortOrder: 1, IsActive: true},
			{ID: "h", Name: "H", Flavor: models.FlavorCore, SortOrder: 2, IsActive: true},
		},
		Items: []models.CompetencyItem{
			{ID: "A", Name: "A", SubGroupID: "g", SortOrder: 1, IsActive: true},
			{ID: "B", Name: "B", SubGroupID: "g", SortOrder: 2, IsActive: true},
			{ID: "C", Name: "C", SubGroupID: "g", SortOrder: 3, IsActive: true},
			{ID: "D", Name: "D", SubGroupID: "h", SortOrder: 1, IsActive: true},
		},
	}
}

type stubHierarchies struct {
	trees   map[models.AssessmentFlavor]models.CompetencyTree
	retired map[models.AssessmentFlavor]models.CompetencyTree
	err     error
}

func newStubHierarchies() *stubHierarchies {
	return &stubHierarchies{
		trees:   map[models.AssessmentFlavor]models.CompetencyTree{models.FlavorCore: coreTree()},
		retired: map[models.AssessmentFlavor]models.CompetencyTree{},
	}
}

// retire moves an item out of the active tree, optionally taking its group with it.
func (s *stubHierarchies) retire(flavor models.AssessmentFlavor, itemID string, withGroup bool) {
	active := s.trees[flavor]
	retired := s.retired[flavor]
	retired.Flavor = flavor
	var groupID string
	items := active.Items[:0:0]
	for _, item := range active.Items {
		if item.ID == itemID {
			groupID = item.SubGroupID
			item.IsActive = false
			retired.Items = append(retired.Items, item)
			continue
		}
		items = append(items, item)
	}
	active.Items = items
	if withGroup {
		subs := active.SubGroups[:0:0]
		for _, sub := range active.SubGroups {
			if sub.ID == groupID {
				sub.IsActive = false
				retired.SubGroups = append(retired.SubGroups, sub)
				continue
			}
			subs = append(subs, sub)
		}
		active.SubGroups = subs
		kept := active.Items[:0:0]
		for _, item := range active.Items {
			if item.SubGroupID == groupID {
				retired.Items = append(retired.Items, item)
				continue
			}
			kept = append(kept, item)
		}
		active.Items = kept
	} else {
		for _, sub := range active.SubGroups {
			if sub.ID == groupID {
				retired.SubGroups = append(retired.SubGroups, sub)
			}
		}
	}
	s.trees[flavor] = active
	s.retired[flavor] = retired
}

func (s *stubHierarchies) Hierarchy(ctx context.Context, flavor models.AssessmentFlavor) (*scoring.Hierarchy, error) {
	if s.err != nil {
		return nil, s.err
	}
	tree, ok := s.trees[flavor]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown flavor")
	}
	return scoring.NewHierarchy(tree)
}

func (s *stubHierarchies) HierarchyFor(ctx context.Context, flavor models.AssessmentFlavor, itemIDs []string) (*scoring.Hierarchy, error) {
	if s.err != nil {
		return nil, s.err
	}
	active, ok := s.trees[flavor]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown flavor")
	}
	tree := models.CompetencyTree{
		Flavor:    flavor,
		TopGroups: append([]models.CompetencyTopGroup(nil), active.TopGroups...),
		SubGroups: append([]models.CompetencySubGroup(nil), active.SubGroups...),
		Items:     append([]models.CompetencyItem(nil), active.Items...),
	}
	retired := s.retired[flavor]
	mergeTree(&tree, &retired)
	return scoring.NewHierarchy(tree)
}

type stubBands struct {
	bands []models.GradeBand
	err   error
}

func (s *stubBands) Table(ctx context.Context) (*scoring.GradeBandTable, error) {
	if s.err != nil {
		return nil, s.err
	}
	return scoring.NewGradeBandTable(s.bands), nil
}

type mockTemplateRepo struct {
	templates   map[string]*models.RequirementTemplate
	assessments map[string]int
	createErr   error
	seq         int
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: map[string]*models.RequirementTemplate{}, assessments: map[string]int{}}
}

func (m *mockTemplateRepo) List(ctx context.Context, filter models.TemplateFilter) ([]models.RequirementTemplate, error) {
	var out []models.RequirementTemplate
	for _, t := range m.templates {
		if filter.Position != "" && t.Position != filter.Position {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockTemplateRepo) FindByID(ctx context.Context, id string) (*models.RequirementTemplate, error) {
	t, ok := m.templates[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *t
	clone.Ratings = append([]models.TemplateRating(nil), t.Ratings...)
	return &clone, nil
}

func (m *mockTemplateRepo) ExistsActive(ctx context.Context, position string, flavor models.AssessmentFlavor, excludeID string) (bool, error) {
	for _, t := range m.templates {
		if t.ID != excludeID && t.IsActive && t.Position == position && t.Flavor == flavor {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockTemplateRepo) CountAssessments(ctx context.Context, id string) (int, error) {
	return m.assessments[id], nil
}

func (m *mockTemplateRepo) Create(ctx context.Context, template *models.RequirementTemplate) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	template.ID = fmt.Sprintf("tpl-%d", m.seq)
	for i := range template.Ratings {
		template.Ratings[i].TemplateID = template.ID
		template.Ratings[i].Position = i
	}
	clone := *template
	m.templates[template.ID] = &clone
	return nil
}

func (m *mockTemplateRepo) Update(ctx context.Context, template *models.RequirementTemplate) error {
	clone := *template
	m.templates[template.ID] = &clone
	return nil
}

func (m *mockTemplateRepo) Delete(ctx context.Context, id string) error {
	delete(m.templates, id)
	return nil
}

// mockAssessmentRepo stores deep copies and enforces the version check like the SQL repository.
type mockAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[string]*models.EmployeeAssessment
	keys        map[string]string
	writes      []models.AssessmentWrite
	seq         int
	staleOnce   bool
}

func newMockAssessmentRepo() *mockAssessmentRepo {
	return &mockAssessmentRepo{assessments: map[string]*models.EmployeeAssessment{}, keys: map[string]string{}}
}

func deepCopy(a *models.EmployeeAssessment) *models.EmployeeAssessment {
	raw, _ := json.Marshal(a)
	var out models.EmployeeAssessment
	_ = json.Unmarshal(raw, &out)
	out.Requirements = append([]models.AssessmentRequirement(nil), a.Requirements...)
	return &out
}

func (m *mockAssessmentRepo) FindByID(ctx context.Context, id string) (*models.EmployeeAssessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assessments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return deepCopy(a), nil
}

func (m *mockAssessmentRepo) List(ctx context.Context, filter models.AssessmentFilter) ([]models.EmployeeAssessment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EmployeeAssessment
	for _, a := range m.assessments {
		if filter.EmployeeID != "" && a.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, *deepCopy(a))
	}
	return out, len(out), nil
}

func (m *mockAssessmentRepo) ListIDsByTemplate(ctx context.Context, templateID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, a := range m.assessments {
		if a.TemplateID == templateID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockAssessmentRepo) Create(ctx context.Context, a *models.EmployeeAssessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := a.EmployeeID + "|" + a.TemplateID + "|" + a.AssessmentDate.Format("2006-01-02")
	if _, ok := m.keys[key]; ok {
		return fmt.Errorf("insert assessment: %w", repository.ErrDuplicate)
	}
	m.seq++
	a.ID = fmt.Sprintf("as-%d", m.seq)
	a.Version = 1
	a.CreatedAt = time.Now().UTC()
	a.UpdatedAt = a.CreatedAt
	m.keys[key] = a.ID
	m.assessments[a.ID] = deepCopy(a)
	return nil
}

func (m *mockAssessmentRepo) Write(ctx context.Context, w models.AssessmentWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, w)
	stored, ok := m.assessments[w.Assessment.ID]
	if !ok || stored.Version != w.ExpectedVersion || m.staleOnce {
		m.staleOnce = false
		return repository.ErrStaleVersion
	}
	next := deepCopy(w.Assessment)
	if !w.ReplaceRatings {
		next.Ratings = stored.Ratings
	}
	if !w.WriteScores {
		next.GroupScores = stored.GroupScores
	}
	next.Requirements = stored.Requirements
	next.Version = w.ExpectedVersion + 1
	m.assessments[next.ID] = next
	w.Assessment.Version = next.Version
	return nil
}

func (m *mockAssessmentRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assessments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assessments, id)
	return nil
}

type recordingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *recordingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type memoryCacheRepo struct {
	entries   map[string][]byte
	gets      int
	deletes   int
	setErr    error
	deleteErr error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, k := range keys {
		m.deletes++
		delete(m.entries, k)
	}
	return nil
}

type mockGradeBandRepo struct {
	bands map[string]*models.GradeBand
	lists int
	seq   int
}

func newMockGradeBandRepo(bands ...models.GradeBand) *mockGradeBandRepo {
	m := &mockGradeBandRepo{bands: map[string]*models.GradeBand{}}
	for i := range bands {
		b := bands[i]
		m.bands[b.ID] = &b
	}
	return m
}

func (m *mockGradeBandRepo) List(ctx context.Context, activeOnly bool) ([]models.GradeBand, error) {
	m.lists++
	var out []models.GradeBand
	for _, b := range m.bands {
		if activeOnly && !b.IsActive {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MinPercentage < out[j].MinPercentage })
	return out, nil
}

func (m *mockGradeBandRepo) FindByID(ctx context.Context, id string) (*models.GradeBand, error) {
	b, ok := m.bands[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *b
	return &clone, nil
}

func (m *mockGradeBandRepo) Create(ctx context.Context, band *models.GradeBand) error {
	m.seq++
	band.ID = fmt.Sprintf("new-%d", m.seq)
	clone := *band
	m.bands[band.ID] = &clone
	return nil
}

func (m *mockGradeBandRepo) Update(ctx context.Context, band *models.GradeBand) error {
	clone := *band
	m.bands[band.ID] = &clone
	return nil
}

func (m *mockGradeBandRepo) Delete(ctx context.Context, id string) error {
	delete(m.bands, id)
	return nil
}
