package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/competency-api/internal/models"
)

func TestCompetencyRepositoryLoadTreeCoreSkipsTopGroups(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	mock.ExpectQuery("FROM competency_sub_groups").WithArgs("CORE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "top_group_id", "sort_order", "is_active"}).
			AddRow("g", "Communication", "CORE", nil, 1, true))
	mock.ExpectQuery("FROM competency_items").WithArgs("CORE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sub_group_id", "sort_order", "is_active"}).
			AddRow("A", "Listening", "g", 1, true).
			AddRow("B", "Writing", "g", 2, true))

	tree, err := repo.LoadTree(context.Background(), models.FlavorCore)
	require.NoError(t, err)
	assert.Empty(t, tree.TopGroups)
	require.Len(t, tree.SubGroups, 1)
	assert.Nil(t, tree.SubGroups[0].TopGroupID)
	assert.Len(t, tree.Items, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompetencyRepositoryLoadTreeLeadership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	mock.ExpectQuery("FROM competency_top_groups").WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "sort_order", "is_active"}).
			AddRow("lead", "Leading People", "LEADERSHIP", 1, true))
	mock.ExpectQuery("FROM competency_sub_groups").WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "top_group_id", "sort_order", "is_active"}).
			AddRow("coach", "Coaching", "LEADERSHIP", "lead", 1, true))
	mock.ExpectQuery("FROM competency_items").WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sub_group_id", "sort_order", "is_active"}).
			AddRow("c1", "Feedback", "coach", 1, true))

	tree, err := repo.LoadTree(context.Background(), models.FlavorLeadership)
	require.NoError(t, err)
	require.Len(t, tree.TopGroups, 1)
	require.NotNil(t, tree.SubGroups[0].TopGroupID)
	assert.Equal(t, "lead", *tree.SubGroups[0].TopGroupID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompetencyRepositoryLoadTreeFiltersInactiveTopGroups(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	mock.ExpectQuery("FROM competency_top_groups").WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "sort_order", "is_active"}).
			AddRow("lead", "Leading People", "LEADERSHIP", 1, true))
	// the retired top group "strategy" is filtered by the joins, so nothing it owns comes back
	mock.ExpectQuery(`(?s)FROM competency_sub_groups sg\s+LEFT JOIN competency_top_groups tg ON tg.id = sg.top_group_id\s+WHERE .*tg.is_active = TRUE`).
		WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "top_group_id", "sort_order", "is_active"}).
			AddRow("coach", "Coaching", "LEADERSHIP", "lead", 1, true))
	mock.ExpectQuery(`(?s)FROM competency_items ci\s+JOIN competency_sub_groups sg\s.*LEFT JOIN competency_top_groups tg\s.*tg.is_active = TRUE`).
		WithArgs("LEADERSHIP").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sub_group_id", "sort_order", "is_active"}).
			AddRow("c1", "Feedback", "coach", 1, true))

	tree, err := repo.LoadTree(context.Background(), models.FlavorLeadership)
	require.NoError(t, err)
	require.Len(t, tree.SubGroups, 1)
	assert.Equal(t, "coach", tree.SubGroups[0].ID)
	require.Len(t, tree.Items, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompetencyRepositoryLoadReferencedIncludesInactiveRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	mock.ExpectQuery(`(?s)FROM competency_top_groups tg\s.*ci.id = ANY\(\$2\)`).WithArgs("LEADERSHIP", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "sort_order", "is_active"}).
			AddRow("strategy", "Strategy", "LEADERSHIP", 2, false))
	mock.ExpectQuery(`(?s)FROM competency_sub_groups sg\s.*ci.id = ANY\(\$2\)`).WithArgs("LEADERSHIP", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "flavor", "top_group_id", "sort_order", "is_active"}).
			AddRow("vision", "Vision", "LEADERSHIP", "strategy", 1, true))
	mock.ExpectQuery(`(?s)FROM competency_items ci\s.*ci.id = ANY\(\$2\)`).WithArgs("LEADERSHIP", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "sub_group_id", "sort_order", "is_active"}).
			AddRow("v1", "Direction", "vision", 1, false))

	tree, err := repo.LoadReferenced(context.Background(), models.FlavorLeadership, []string{"v1"})
	require.NoError(t, err)
	require.Len(t, tree.TopGroups, 1)
	assert.False(t, tree.TopGroups[0].IsActive)
	require.Len(t, tree.Items, 1)
	assert.False(t, tree.Items[0].IsActive)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCompetencyRepositoryLoadReferencedWithoutIDsSkipsQueries(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCompetencyRepository(db)

	tree, err := repo.LoadReferenced(context.Background(), models.FlavorCore, nil)
	require.NoError(t, err)
	assert.Empty(t, tree.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}
