package server

import (
	"github.com/gofiber/fiber/v2"
)

// AddFavorite handles POST /api/review/set/:id/favorite. Favoriting the same
// review twice is a 409, not a silent no-op.
func (s *Server) AddFavorite(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	if err := s.reviewService.AddFavorite(c.Context(), userID, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusCreated)
}

// RemoveFavorite handles DELETE /api/review/set/:id/unfavorite
func (s *Server) RemoveFavorite(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	if err := s.reviewService.RemoveFavorite(c.Context(), userID, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFavoriteStatus handles GET /api/review/:id/favorite
func (s *Server) GetFavoriteStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	isFavorite, err := s.reviewService.IsFavorite(c.Context(), userID, id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"isFavorite": isFavorite})
}

// GetFavoritesCount handles GET /api/review/favorites_count/:id (public)
func (s *Server) GetFavoritesCount(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	count, err := s.reviewService.FavoritesCount(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"favorites_count": count})
}

// GetFavoriteList handles GET /api/favorite_list
func (s *Server) GetFavoriteList(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	userID := c.Locals("userID").(uint)

	reviews, err := s.reviewService.ListFavorites(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}
