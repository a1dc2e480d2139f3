package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetItems handles GET /api/item/item_list
func (s *Server) GetItems(c *fiber.Ctx) error {
	items, err := s.itemService.ListItems(c.Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

// GetItem handles GET /api/item/item_detail/:id
func (s *Server) GetItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	item, err := s.itemService.GetItem(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"item": item})
}

// GetItemMetadata handles GET /api/item/item_metadata_list
func (s *Server) GetItemMetadata(c *fiber.Ctx) error {
	meta, err := s.itemService.GetMetadata(c.Context())
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(meta)
}
