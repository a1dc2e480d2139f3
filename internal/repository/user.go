// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"racketlog/internal/cache"
	"racketlog/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	// DeleteAccount removes the user and everything they own in one
	// transaction and returns the media keys that became orphaned.
	DeleteAccount(ctx context.Context, id uint) ([]string, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already registered")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) DeleteAccount(ctx context.Context, id uint) ([]string, error) {
	var orphaned []string
	var reviewIDs []uint
	var touchedReviewIDs []uint

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return err
		}
		orphaned = append(orphaned, user.Image)

		if err := tx.Model(&models.Review{}).
			Where("user_id = ?", id).
			Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		var imageKeys []string
		if err := tx.Model(&models.Review{}).
			Where("user_id = ? AND image <> ''", id).
			Pluck("image", &imageKeys).Error; err != nil {
			return err
		}
		orphaned = append(orphaned, imageKeys...)

		// Reviews by other users lose this user's favorites; their counts
		// must be recomputed after the favorites are gone.
		if err := tx.Model(&models.Favorite{}).
			Where("user_id = ? AND review_id NOT IN (SELECT id FROM reviews WHERE user_id = ?)", id, id).
			Pluck("review_id", &touchedReviewIDs).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&models.Favorite{}).Error; err != nil {
				return err
			}
			if err := tx.Where("review_id IN ?", reviewIDs).Delete(&models.UserReview{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserReview{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}

		for _, reviewID := range touchedReviewIDs {
			if err := recomputeFavoritesCount(tx, reviewID); err != nil {
				return err
			}
		}

		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}

	// Invalidate only once the recomputed counts are committed, so a reader
	// racing the DEL cannot repopulate the cache with the old value.
	for _, reviewID := range touchedReviewIDs {
		cache.InvalidateFavoriteCount(ctx, reviewID)
	}
	for _, reviewID := range reviewIDs {
		cache.InvalidateFavoriteCount(ctx, reviewID)
	}

	return orphaned, nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; sqlite reports "UNIQUE constraint failed"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// recomputeFavoritesCount rewrites a review's denormalized counter from the
// favorites table. Callers must already hold whatever lock the operation needs
// and must invalidate the cached count only after their transaction commits.
func recomputeFavoritesCount(tx *gorm.DB, reviewID uint) error {
	var count int64
	if err := tx.Model(&models.Favorite{}).
		Where("review_id = ?", reviewID).
		Count(&count).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Review{}).
		Where("id = ?", reviewID).
		Update("favorites_count", count).Error; err != nil {
		return err
	}
	return nil
}
