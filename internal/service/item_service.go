package service

import (
	"context"

	"racketlog/internal/models"
	"racketlog/internal/repository"
)

// ItemService exposes catalog reads. The catalog is maintained out of band
// (seeder, admin tooling), so there are no mutation paths here.
type ItemService struct {
	itemRepo repository.ItemRepository
}

func NewItemService(itemRepo repository.ItemRepository) *ItemService {
	return &ItemService{itemRepo: itemRepo}
}

// ListItems returns displayable items, newest release first.
func (s *ItemService) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.itemRepo.List(ctx)
}

func (s *ItemService) GetItem(ctx context.Context, id uint) (*models.Item, error) {
	return s.itemRepo.GetByID(ctx, id)
}

// GetMetadata returns the brand/series/position aggregate used by catalog
// filter UIs.
func (s *ItemService) GetMetadata(ctx context.Context) (*models.ItemMetadata, error) {
	return s.itemRepo.Metadata(ctx)
}
