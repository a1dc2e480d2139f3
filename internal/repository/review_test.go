package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"racketlog/internal/cache"
	"racketlog/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appErrCode(t *testing.T, err error) string {
	t.Helper()
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

func TestReviewRepository_CreateWritesAuthorshipRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	user := createTestUser(t, db, "author@example.com")
	item := createTestItem(t, db, "Geobreak 70V")

	review := &models.Review{
		UserID:  user.ID,
		ItemID:  item.ID,
		Title:   "First impressions",
		Content: "Light and fast.",
	}
	require.NoError(t, repo.Create(ctx, review))
	require.NotZero(t, review.ID)

	var userReview models.UserReview
	require.NoError(t, db.Where("user_id = ? AND review_id = ?", user.ID, review.ID).
		First(&userReview).Error)
	assert.False(t, review.IsEdited)
	assert.Zero(t, review.FavoritesCount)
}

func TestReviewRepository_GetByIDAnnotatesIsMyReview(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	other := createTestUser(t, db, "other@example.com")
	item := createTestItem(t, db, "Scud Pro-C")
	review := createTestReview(t, db, author.ID, item.ID)

	got, err := repo.GetByID(ctx, review.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, got.IsMyReview)

	got, err = repo.GetByID(ctx, review.ID, other.ID)
	require.NoError(t, err)
	assert.False(t, got.IsMyReview)

	// unauthenticated
	got, err = repo.GetByID(ctx, review.ID, 0)
	require.NoError(t, err)
	assert.False(t, got.IsMyReview)
}

func TestReviewRepository_GetByIDNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)

	_, err := repo.GetByID(context.Background(), 999, 0)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestReviewRepository_AddFavoriteRecomputesCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan1 := createTestUser(t, db, "fan1@example.com")
	fan2 := createTestUser(t, db, "fan2@example.com")
	item := createTestItem(t, db, "Xyst ZZ")
	review := createTestReview(t, db, author.ID, item.ID)

	require.NoError(t, repo.AddFavorite(ctx, fan1.ID, review.ID))
	require.NoError(t, repo.AddFavorite(ctx, fan2.ID, review.ID))

	got, err := repo.GetByID(ctx, review.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, got.FavoritesCount)
}

func TestReviewRepository_DuplicateFavoriteIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Voltrage 7S")
	review := createTestReview(t, db, author.ID, item.ID)

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))
	err := repo.AddFavorite(ctx, fan.ID, review.ID)
	assert.Equal(t, "CONFLICT", appErrCode(t, err))

	// the failed insert must not have bumped the counter
	got, getErr := repo.GetByID(ctx, review.ID, 0)
	require.NoError(t, getErr)
	assert.Equal(t, 1, got.FavoritesCount)
}

func TestReviewRepository_AddFavoriteMissingReview(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)

	fan := createTestUser(t, db, "fan@example.com")
	err := repo.AddFavorite(context.Background(), fan.ID, 999)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestReviewRepository_RemoveFavorite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Nanoforce 8V")
	review := createTestReview(t, db, author.ID, item.ID)

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))
	require.NoError(t, repo.RemoveFavorite(ctx, fan.ID, review.ID))

	got, err := repo.GetByID(ctx, review.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, got.FavoritesCount)

	// removing again is a not-found, not a no-op
	err = repo.RemoveFavorite(ctx, fan.ID, review.ID)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestReviewRepository_IsFavorite(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Custom Edge")
	review := createTestReview(t, db, author.ID, item.ID)

	got, err := repo.IsFavorite(ctx, fan.ID, review.ID)
	require.NoError(t, err)
	assert.False(t, got)

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))
	got, err = repo.IsFavorite(ctx, fan.ID, review.ID)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestReviewRepository_FavoritesCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Deep Impact")
	review := createTestReview(t, db, author.ID, item.ID)

	count, err := repo.FavoritesCount(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))
	count, err = repo.FavoritesCount(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = repo.FavoritesCount(ctx, 999)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))
}

func TestReviewRepository_DeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Geobreak 50S")
	review := createTestReview(t, db, author.ID, item.ID)
	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))

	require.NoError(t, repo.Delete(ctx, review.ID))

	_, err := repo.GetByID(ctx, review.ID, 0)
	assert.Equal(t, "NOT_FOUND", appErrCode(t, err))

	var favorites int64
	require.NoError(t, db.Model(&models.Favorite{}).
		Where("review_id = ?", review.ID).Count(&favorites).Error)
	assert.Zero(t, favorites)

	var userReviews int64
	require.NoError(t, db.Model(&models.UserReview{}).
		Where("review_id = ?", review.ID).Count(&userReviews).Error)
	assert.Zero(t, userReviews)
}

func TestReviewRepository_ListByItemExcludingUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	other := createTestUser(t, db, "other@example.com")
	item := createTestItem(t, db, "Scud 05-C")
	mine := createTestReview(t, db, author.ID, item.ID)
	theirs := createTestReview(t, db, other.ID, item.ID)

	reviews, err := repo.ListByItemExcludingUser(ctx, item.ID, author.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, theirs.ID, reviews[0].ID)
	assert.NotEqual(t, mine.ID, reviews[0].ID)

	// itemID zero lists across the catalog
	reviews, err = repo.ListByItemExcludingUser(ctx, 0, author.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, theirs.ID, reviews[0].ID)
}

func TestReviewRepository_ListFavorites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Axthena 90")
	first := createTestReview(t, db, author.ID, item.ID)
	second := createTestReview(t, db, author.ID, item.ID)

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, first.ID))
	require.NoError(t, repo.AddFavorite(ctx, fan.ID, second.ID))

	reviews, err := repo.ListFavorites(ctx, fan.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	// only the fan's favorites are listed
	reviews, err = repo.ListFavorites(ctx, author.ID, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestReviewRepository_FavoriteToggleDropsCachedCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	author := createTestUser(t, db, "author@example.com")
	fan := createTestUser(t, db, "fan@example.com")
	item := createTestItem(t, db, "Voltrage 7S")
	review := createTestReview(t, db, author.ID, item.ID)

	// Warm the cache with the pre-toggle count.
	count, err := repo.FavoritesCount(ctx, review.ID)
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.True(t, mr.Exists(cache.FavoriteCountKey(review.ID)))

	require.NoError(t, repo.AddFavorite(ctx, fan.ID, review.ID))
	assert.False(t, mr.Exists(cache.FavoriteCountKey(review.ID)))

	count, err = repo.FavoritesCount(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, repo.RemoveFavorite(ctx, fan.ID, review.ID))
	assert.False(t, mr.Exists(cache.FavoriteCountKey(review.ID)))

	count, err = repo.FavoritesCount(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestReviewRepository_ConcurrentFavoriteToggles(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	// A single shared connection keeps every goroutine on the same
	// in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	author := createTestUser(t, db, "author@example.com")
	item := createTestItem(t, db, "Laserush 9S")
	review := createTestReview(t, db, author.ID, item.ID)

	const fans = 8
	fanIDs := make([]uint, 0, fans)
	for i := 0; i < fans; i++ {
		fan := createTestUser(t, db, fmt.Sprintf("fan%d@example.com", i))
		fanIDs = append(fanIDs, fan.ID)
	}

	var wg sync.WaitGroup
	for _, fanID := range fanIDs {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			assert.NoError(t, repo.AddFavorite(ctx, id, review.ID))
		}(fanID)
	}
	wg.Wait()

	var stored models.Review
	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, fans, stored.FavoritesCount)

	// Half the fans leave, concurrently again.
	for _, fanID := range fanIDs[:fans/2] {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			assert.NoError(t, repo.RemoveFavorite(ctx, id, review.ID))
		}(fanID)
	}
	wg.Wait()

	require.NoError(t, db.First(&stored, review.ID).Error)
	assert.Equal(t, fans/2, stored.FavoritesCount)
}

func TestReviewRepository_ListsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	item := createTestItem(t, db, "Geobreak 80G")

	base := time.Now().Add(-time.Hour)
	older := &models.Review{
		UserID:    author.ID,
		ItemID:    item.ID,
		Title:     "Older take",
		Content:   "Wrote this first.",
		CreatedAt: base,
	}
	require.NoError(t, repo.Create(ctx, older))
	newer := &models.Review{
		UserID:    author.ID,
		ItemID:    item.ID,
		Title:     "Newer take",
		Content:   "Wrote this later.",
		CreatedAt: base.Add(30 * time.Minute),
	}
	require.NoError(t, repo.Create(ctx, newer))

	reviews, err := repo.List(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID)
	assert.Equal(t, older.ID, reviews[1].ID)

	reviews, err = repo.ListByUser(ctx, author.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID)

	reviews, err = repo.ListByItem(ctx, item.ID, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, newer.ID, reviews[0].ID)
}

func TestReviewRepository_EqualTimestampsOrderByIDDesc(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	author := createTestUser(t, db, "author@example.com")
	item := createTestItem(t, db, "Air Velo")

	when := time.Now().Truncate(time.Second)
	var ids []uint
	for i := 0; i < 3; i++ {
		review := &models.Review{
			UserID:    author.ID,
			ItemID:    item.ID,
			Title:     fmt.Sprintf("Take %d", i),
			Content:   "Same moment.",
			CreatedAt: when,
		}
		require.NoError(t, repo.Create(ctx, review))
		ids = append(ids, review.ID)
	}

	reviews, err := repo.List(ctx, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 3)
	assert.Equal(t, ids[2], reviews[0].ID)
	assert.Equal(t, ids[1], reviews[1].ID)
	assert.Equal(t, ids[0], reviews[2].ID)
}
