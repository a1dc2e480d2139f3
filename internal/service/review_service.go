package service

import (
	"context"
	"strings"

	"racketlog/internal/middleware"
	"racketlog/internal/models"
	"racketlog/internal/repository"
)

const (
	maxReviewTitleLen   = 200
	maxReviewContentLen = 20000
)

// ReviewService owns review lifecycle, ownership checks and favorites.
type ReviewService struct {
	reviewRepo repository.ReviewRepository
	itemRepo   repository.ItemRepository
	images     *ImageService
}

type CreateReviewInput struct {
	UserID  uint
	ItemID  uint
	Title   string
	Content string
	Image   []byte
}

type UpdateReviewInput struct {
	UserID   uint
	ReviewID uint
	Title    string
	Content  string
	Image    ImagePatch
}

type ListReviewsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	itemRepo repository.ItemRepository,
	images *ImageService,
) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		itemRepo:   itemRepo,
		images:     images,
	}
}

// CreateReview validates the payload, normalizes the optional image and
// inserts the review plus its authorship row. The item must already exist.
func (s *ReviewService) CreateReview(ctx context.Context, in CreateReviewInput) (*models.Review, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxReviewTitleLen {
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxReviewContentLen {
		return nil, models.NewValidationError("Content too long (max 20000 characters)")
	}

	if _, err := s.itemRepo.GetByID(ctx, in.ItemID); err != nil {
		return nil, err
	}

	var imageKey string
	if len(in.Image) > 0 {
		key, err := s.images.NormalizeAndStore(ctx, ReviewImagePrefix, in.Image)
		if err != nil {
			return nil, err
		}
		imageKey = key
	}

	review := &models.Review{
		UserID:  in.UserID,
		ItemID:  in.ItemID,
		Title:   in.Title,
		Content: in.Content,
		Image:   imageKey,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		// The asset was stored before the insert; reclaim it so a failed
		// create leaves nothing behind.
		if imageKey != "" {
			s.images.Release(ctx, "review", imageKey)
		}
		return nil, err
	}

	return s.reviewRepo.GetByID(ctx, review.ID, in.UserID)
}

func (s *ReviewService) GetReview(ctx context.Context, id uint, currentUserID uint) (*models.Review, error) {
	return s.reviewRepo.GetByID(ctx, id, currentUserID)
}

func (s *ReviewService) ListReviews(ctx context.Context, in ListReviewsInput) ([]*models.Review, error) {
	return s.reviewRepo.List(ctx, in.Limit, in.Offset, in.CurrentUserID)
}

// ListMyReviews returns the actor's own reviews, newest first.
func (s *ReviewService) ListMyReviews(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	return s.reviewRepo.ListByUser(ctx, userID, limit, offset)
}

func (s *ReviewService) ListItemReviews(ctx context.Context, itemID uint, limit, offset int, currentUserID uint) ([]*models.Review, error) {
	if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByItem(ctx, itemID, limit, offset, currentUserID)
}

// ListOtherUsersReviews returns reviews by everyone except the actor, scoped
// to one item when itemID is non-zero.
func (s *ReviewService) ListOtherUsersReviews(ctx context.Context, itemID, userID uint, limit, offset int) ([]*models.Review, error) {
	if itemID != 0 {
		if _, err := s.itemRepo.GetByID(ctx, itemID); err != nil {
			return nil, err
		}
	}
	return s.reviewRepo.ListByItemExcludingUser(ctx, itemID, userID, limit, offset)
}

// UpdateReview applies a partial patch. Only the author may update; any
// successful change flips is_edited permanently. The image field is
// tri-state, and a replaced or cleared asset is released only after the row
// has been saved.
func (s *ReviewService) UpdateReview(ctx context.Context, in UpdateReviewInput) (*models.Review, error) {
	review, err := s.reviewRepo.GetByID(ctx, in.ReviewID, in.UserID)
	if err != nil {
		return nil, err
	}
	if review.UserID != in.UserID {
		return nil, models.NewPermissionDeniedError("You can only update your own reviews")
	}

	if in.Title != "" {
		if len(in.Title) > maxReviewTitleLen {
			return nil, models.NewValidationError("Title too long (max 200 characters)")
		}
		review.Title = in.Title
	}
	if in.Content != "" {
		if len(in.Content) > maxReviewContentLen {
			return nil, models.NewValidationError("Content too long (max 20000 characters)")
		}
		review.Content = in.Content
	}

	previousImage := review.Image
	imageChanged := false
	if in.Image.Present {
		if in.Image.Clear {
			review.Image = ""
			imageChanged = previousImage != ""
		} else {
			key, err := s.images.NormalizeAndStore(ctx, ReviewImagePrefix, in.Image.Data)
			if err != nil {
				return nil, err
			}
			review.Image = key
			imageChanged = true
		}
	}

	review.IsEdited = true
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		if imageChanged && review.Image != "" {
			s.images.Release(ctx, "review", review.Image)
		}
		return nil, err
	}

	if imageChanged {
		s.images.Release(ctx, "review", previousImage)
	}
	return s.reviewRepo.GetByID(ctx, in.ReviewID, in.UserID)
}

// DeleteReview removes the review with its favorites and authorship rows,
// then releases the stored image asset best-effort.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID uint) error {
	review, err := s.reviewRepo.GetByID(ctx, reviewID, userID)
	if err != nil {
		return err
	}
	if review.UserID != userID {
		return models.NewPermissionDeniedError("You can only delete your own reviews")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		return err
	}
	s.images.Release(ctx, "review", review.Image)
	return nil
}

// AddFavorite marks the review as favorited by the user. Favoriting the same
// review twice is a conflict.
func (s *ReviewService) AddFavorite(ctx context.Context, userID, reviewID uint) error {
	if err := s.reviewRepo.AddFavorite(ctx, userID, reviewID); err != nil {
		return err
	}
	middleware.FavoriteToggles.WithLabelValues("add").Inc()
	return nil
}

// RemoveFavorite clears the user's favorite. Removing a favorite that does
// not exist is a not-found, not a no-op.
func (s *ReviewService) RemoveFavorite(ctx context.Context, userID, reviewID uint) error {
	if err := s.reviewRepo.RemoveFavorite(ctx, userID, reviewID); err != nil {
		return err
	}
	middleware.FavoriteToggles.WithLabelValues("remove").Inc()
	return nil
}

// IsFavorite reports whether the user has favorited the review. Any pair
// without a favorite row answers false, including unknown review IDs.
func (s *ReviewService) IsFavorite(ctx context.Context, userID, reviewID uint) (bool, error) {
	return s.reviewRepo.IsFavorite(ctx, userID, reviewID)
}

func (s *ReviewService) FavoritesCount(ctx context.Context, reviewID uint) (int, error) {
	return s.reviewRepo.FavoritesCount(ctx, reviewID)
}

// ListFavorites returns the reviews the user has favorited, newest first.
func (s *ReviewService) ListFavorites(ctx context.Context, userID uint, limit, offset int) ([]*models.Review, error) {
	return s.reviewRepo.ListFavorites(ctx, userID, limit, offset)
}
