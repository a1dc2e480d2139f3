package repository

import (
	"context"
	"testing"
	"time"

	"racketlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemRepository_ListFiltersAndOrders(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	older := createTestItem(t, db, "Older")
	require.NoError(t, db.Model(older).Update("release_date", time.Now().AddDate(-3, 0, 0)).Error)
	newer := createTestItem(t, db, "Newer")
	require.NoError(t, db.Model(newer).Update("release_date", time.Now().AddDate(0, -1, 0)).Error)
	hidden := createTestItem(t, db, "Hidden")
	require.NoError(t, db.Model(hidden).Update("display", false).Error)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, newer.ID, items[0].ID)
	assert.Equal(t, older.ID, items[1].ID)

	// associations come preloaded
	assert.NotEmpty(t, items[0].Brand.Name)
	assert.NotEmpty(t, items[0].Series.Name)
	assert.NotEmpty(t, items[0].Position.Name)
}

func TestItemRepository_GetByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	item := createTestItem(t, db, "Geobreak 80S")

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, "Brand Geobreak 80S", got.Brand.Name)

	_, err = repo.GetByID(ctx, 999)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestItemRepository_Metadata(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)
	ctx := context.Background()

	createTestItem(t, db, "A")
	createTestItem(t, db, "B")

	meta, err := repo.Metadata(ctx)
	require.NoError(t, err)
	assert.Len(t, meta.Brands, 2)
	assert.Len(t, meta.Series, 2)
	assert.Len(t, meta.Positions, 2)

	var zero models.ItemMetadata
	assert.NotEqual(t, zero, *meta)
}
