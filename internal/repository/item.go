package repository

import (
	"context"
	"errors"

	"racketlog/internal/cache"
	"racketlog/internal/models"

	"gorm.io/gorm"
)

// ItemRepository defines read operations over the equipment catalog.
type ItemRepository interface {
	List(ctx context.Context) ([]models.Item, error)
	GetByID(ctx context.Context, id uint) (*models.Item, error)
	Metadata(ctx context.Context) (*models.ItemMetadata, error)
}

type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository returns a new ItemRepository implementation.
func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) List(ctx context.Context) ([]models.Item, error) {
	var items []models.Item
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Series").
		Preload("Position").
		Where("display = ?", true).
		Order("release_date DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return items, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uint) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Brand").
		Preload("Series").
		Preload("Position").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Item", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &item, nil
}

func (r *itemRepository) Metadata(ctx context.Context) (*models.ItemMetadata, error) {
	var meta models.ItemMetadata
	err := cache.Aside(ctx, cache.ItemMetadataKey, &meta, cache.ItemMetadataTTL, func() error {
		if err := r.db.WithContext(ctx).Order("name ASC").Find(&meta.Brands).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Order("name ASC").Find(&meta.Series).Error; err != nil {
			return err
		}
		return r.db.WithContext(ctx).Order("name ASC").Find(&meta.Positions).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &meta, nil
}
