package repository

import (
	"context"
	"errors"

	"racketlog/internal/cache"
	"racketlog/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReviewRepository defines persistence operations for reviews and favorites.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Review, error)
	List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error)
	ListByItem(ctx context.Context, itemID uint, limit, offset int, currentUserID uint) ([]*models.Review, error)
	ListByItemExcludingUser(ctx context.Context, itemID, excludeUserID uint, limit, offset int) ([]*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id uint) error

	AddFavorite(ctx context.Context, userID, reviewID uint) error
	RemoveFavorite(ctx context.Context, userID, reviewID uint) error
	IsFavorite(ctx context.Context, userID, reviewID uint) (bool, error)
	FavoritesCount(ctx context.Context, reviewID uint) (int, error)
	ListFavorites(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a new ReviewRepository implementation.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review together with its authorship row. Both succeed or
// neither does.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserReview{
			UserID:   review.UserID,
			ReviewID: review.ID,
		}).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Review authorship already recorded")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Review, error) {
	var review models.Review
	err := r.applyReviewDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Item").
		First(&review, "reviews.id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Review", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context, limit, offset int, currentUserID uint) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Item").
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(r.db.WithContext(ctx), userID).
		Preload("User").
		Preload("Item").
		Where("reviews.user_id = ?", userID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) ListByItem(ctx context.Context, itemID uint, limit, offset int, currentUserID uint) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(r.db.WithContext(ctx), currentUserID).
		Preload("User").
		Preload("Item").
		Where("reviews.item_id = ?", itemID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// ListByItemExcludingUser returns reviews not authored by excludeUserID. An
// itemID of zero lists across the whole catalog.
func (r *reviewRepository) ListByItemExcludingUser(ctx context.Context, itemID, excludeUserID uint, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	q := r.applyReviewDetails(r.db.WithContext(ctx), excludeUserID).
		Preload("User").
		Preload("Item").
		Where("reviews.user_id <> ?", excludeUserID)
	if itemID != 0 {
		q = q.Where("reviews.item_id = ?", itemID)
	}
	err := q.
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Save(review).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the review and its dependent rows in one transaction.
func (r *reviewRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).Delete(&models.UserReview{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Review{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateFavoriteCount(ctx, id)
	return nil
}

// lockForUpdate takes a row-level lock where the dialect supports it. SQLite
// serializes writes on the whole database, so no clause is needed there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// AddFavorite inserts the (user, review) favorite and recomputes the review's
// counter under a row lock. A duplicate favorite is a conflict, not a no-op.
func (r *reviewRepository) AddFavorite(ctx context.Context, userID, reviewID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := lockForUpdate(tx).
			First(&review, reviewID).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.Favorite{UserID: userID, ReviewID: reviewID}).Error; err != nil {
			return err
		}
		return recomputeFavoritesCount(tx, reviewID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Review", reviewID)
		}
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Review already favorited")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateFavoriteCount(ctx, reviewID)
	return nil
}

// RemoveFavorite deletes the (user, review) favorite and recomputes the
// counter under the same row lock. A missing favorite is a not-found.
func (r *reviewRepository) RemoveFavorite(ctx context.Context, userID, reviewID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := lockForUpdate(tx).
			First(&review, reviewID).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND review_id = ?", userID, reviewID).
			Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Favorite", reviewID)
		}
		return recomputeFavoritesCount(tx, reviewID)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return err
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Review", reviewID)
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateFavoriteCount(ctx, reviewID)
	return nil
}

func (r *reviewRepository) IsFavorite(ctx context.Context, userID, reviewID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND review_id = ?", userID, reviewID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// FavoritesCount reads the denormalized counter, cache-aside.
func (r *reviewRepository) FavoritesCount(ctx context.Context, reviewID uint) (int, error) {
	var count int
	err := cache.Aside(ctx, cache.FavoriteCountKey(reviewID), &count, cache.FavoriteCountTTL, func() error {
		var review models.Review
		if err := r.db.WithContext(ctx).
			Select("favorites_count").
			First(&review, reviewID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Review", reviewID)
			}
			return models.NewInternalError(err)
		}
		count = review.FavoritesCount
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListFavorites returns the reviews the user has favorited, newest review first.
func (r *reviewRepository) ListFavorites(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review
	err := r.applyReviewDetails(r.db.WithContext(ctx), userID).
		Preload("User").
		Preload("Item").
		Joins("JOIN favorites ON favorites.review_id = reviews.id").
		Where("favorites.user_id = ?", userID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return reviews, nil
}

// applyReviewDetails annotates each row with is_my_review relative to the
// requesting user in the same query.
func (r *reviewRepository) applyReviewDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	if currentUserID != 0 {
		return db.Select(
			"reviews.*, EXISTS(SELECT 1 FROM user_reviews WHERE user_reviews.review_id = reviews.id AND user_reviews.user_id = ?) AS is_my_review",
			currentUserID,
		)
	}
	return db.Select("reviews.*, FALSE AS is_my_review")
}
