package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/competency-api/internal/models"
	appErrors "github.com/noah-isme/competency-api/pkg/errors"
)

func bandRequest(letter string, min, max float64) GradeBandRequest {
	return GradeBandRequest{Letter: letter, MinPercentage: float64Ptr(min), MaxPercentage: float64Ptr(max)}
}

func TestGradeBandServiceCreateRejectsOverlap(t *testing.T) {
	repo := newMockGradeBandRepo(gradeBand("A", 90, 100), gradeBand("B+", 80, 90))
	svc := NewGradeBandService(repo, nil, 0, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), bandRequest("X", 85, 95))
	assertCode(t, err, appErrors.ErrValidation.Code)

	band, err := svc.Create(context.Background(), bandRequest("B", 70, 80))
	require.NoError(t, err)
	assert.True(t, band.IsActive)

	inactive := bandRequest("Y", 85, 95)
	inactive.IsActive = boolPtr(false)
	_, err = svc.Create(context.Background(), inactive)
	require.NoError(t, err)
}

func TestGradeBandServiceCreateRejectsBadBounds(t *testing.T) {
	svc := NewGradeBandService(newMockGradeBandRepo(), nil, 0, nil, nil)

	for _, req := range []GradeBandRequest{
		bandRequest("A", 90, 90),
		bandRequest("A", 95, 90),
		bandRequest("A", -1, 10),
		bandRequest("A", 90, 101),
		bandRequest(" ", 0, 10),
		{Letter: "A", MaxPercentage: float64Ptr(10)},
	} {
		_, err := svc.Create(context.Background(), req)
		assertCode(t, err, appErrors.ErrValidation.Code)
	}
}

func TestGradeBandServiceUpdateIgnoresItself(t *testing.T) {
	repo := newMockGradeBandRepo(gradeBand("A", 90, 100), gradeBand("B+", 80, 90))
	svc := NewGradeBandService(repo, nil, 0, nil, nil)

	updated, err := svc.Update(context.Background(), "band-A", bandRequest("A", 88, 100))
	assertCode(t, err, appErrors.ErrValidation.Code)
	assert.Nil(t, updated)

	updated, err = svc.Update(context.Background(), "band-A", GradeBandRequest{Letter: "A", MinPercentage: float64Ptr(90), MaxPercentage: float64Ptr(100), Description: "Outstanding"})
	require.NoError(t, err)
	assert.Equal(t, "Outstanding", updated.Description)

	_, err = svc.Update(context.Background(), "missing", bandRequest("Q", 0, 10))
	assertCode(t, err, appErrors.ErrNotFound.Code)
}

func TestGradeBandServiceTableUsesCacheAndInvalidates(t *testing.T) {
	repo := newMockGradeBandRepo(standardBands()...)
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, NewMetricsService(), 0, zap.NewNop(), true)
	svc := NewGradeBandService(repo, cache, 0, nil, zap.NewNop())

	_, err := svc.Table(context.Background())
	require.NoError(t, err)
	_, err = svc.Table(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lists)

	require.NoError(t, svc.Delete(context.Background(), "band-D"))
	assert.Equal(t, 1, cacheRepo.deletes)

	table, err := svc.Table(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Bands(), 4)
}

func TestGradeBandServiceLogsCacheFailures(t *testing.T) {
	repo := newMockGradeBandRepo(standardBands()...)
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.setErr = errors.New("redis: connection refused")
	cacheRepo.deleteErr = errors.New("redis: connection refused")
	core, logs := observer.New(zapcore.WarnLevel)
	logr := zap.New(core)
	cache := NewCacheService(cacheRepo, NewMetricsService(), 0, zap.NewNop(), true)
	svc := NewGradeBandService(repo, cache, 0, nil, logr)

	_, err := svc.Table(context.Background())
	require.NoError(t, err)
	setLogs := logs.FilterMessage("failed to cache grade bands").All()
	require.Len(t, setLogs, 1)
	assert.Equal(t, int64(5), setLogs[0].ContextMap()["bands"])

	require.NoError(t, svc.Delete(context.Background(), "band-D"))
	invalidateLogs := logs.FilterMessage("failed to invalidate grade band cache").All()
	require.Len(t, invalidateLogs, 1)
	assert.Equal(t, "band-D", invalidateLogs[0].ContextMap()["band_id"])
	assert.Equal(t, zapcore.WarnLevel, invalidateLogs[0].Level)
}

func TestGradeBandServiceLookup(t *testing.T) {
	svc := NewGradeBandService(newMockGradeBandRepo(standardBands()...), nil, 0, nil, nil)

	band, err := svc.Lookup(context.Background(), 90)
	require.NoError(t, err)
	assert.Equal(t, "A", band.Letter)

	band, err = svc.Lookup(context.Background(), 89.99)
	require.NoError(t, err)
	assert.Equal(t, "B+", band.Letter)

	band, err = svc.Lookup(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "A", band.Letter)

	_, err = svc.Lookup(context.Background(), 100.5)
	assertCode(t, err, appErrors.ErrInvalidPercentage.Code)
	_, err = svc.Lookup(context.Background(), -0.1)
	assertCode(t, err, appErrors.ErrInvalidPercentage.Code)
}

func TestGradeBandServiceCoverageAndConfigurationError(t *testing.T) {
	repo := newMockGradeBandRepo(gradeBand("A", 90, 100), gradeBand("D", 0, 60))
	svc := NewGradeBandService(repo, nil, 0, nil, nil)

	report, err := svc.Coverage(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Complete)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, 60.0, report.Gaps[0].From)
	assert.Equal(t, 90.0, report.Gaps[0].To)

	_, err = svc.Lookup(context.Background(), 75)
	assertCode(t, err, appErrors.ErrConfiguration.Code)
}

func TestGradeBandServiceListAndGet(t *testing.T) {
	inactive := gradeBand("OLD", 0, 50)
	inactive.ID = "old"
	inactive.IsActive = false
	svc := NewGradeBandService(newMockGradeBandRepo(gradeBand("A", 0, 100), inactive), nil, 0, nil, nil)

	all, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	active, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []models.GradeBand{gradeBand("A", 0, 100)}, active)

	_, err = svc.Get(context.Background(), "nope")
	assertCode(t, err, appErrors.ErrNotFound.Code)
}
