package server

import (
	"io"

	"racketlog/internal/models"
	"racketlog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateReview handles POST /api/review/create/:itemId (multipart form with
// title, content and an optional image).
func (s *Server) CreateReview(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	in := service.CreateReviewInput{
		UserID: userID,
		ItemID: itemID,
	}

	if form, formErr := c.MultipartForm(); formErr == nil && form != nil {
		if v := form.Value["title"]; len(v) > 0 {
			in.Title = v[0]
		}
		if v := form.Value["content"]; len(v) > 0 {
			in.Content = v[0]
		}
		if len(form.File["image"]) > 0 {
			data, readErr := readFormFile(c, "image")
			if readErr != nil {
				return models.RespondWithError(c, fiber.StatusBadRequest,
					models.NewValidationError("Could not read uploaded image"))
			}
			in.Image = data
		}
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if bodyErr := c.BodyParser(&req); bodyErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title = req.Title
		in.Content = req.Content
	}

	review, err := s.reviewService.CreateReview(c.Context(), in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"review": review})
}

// GetReviews handles GET /api/reviews
func (s *Server) GetReviews(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	currentUserID, _ := s.optionalUserID(c)

	reviews, err := s.reviewService.ListReviews(c.Context(), service.ListReviewsInput{
		Limit:         p.Limit,
		Offset:        p.Offset,
		CurrentUserID: currentUserID,
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetReview handles GET /api/reviews/:id
func (s *Server) GetReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	currentUserID, _ := s.optionalUserID(c)

	review, err := s.reviewService.GetReview(c.Context(), id, currentUserID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"review": review})
}

// UpdateReview handles PATCH /api/reviews/:id
func (s *Server) UpdateReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	in := service.UpdateReviewInput{
		UserID:   userID,
		ReviewID: id,
	}

	if form, formErr := c.MultipartForm(); formErr == nil && form != nil {
		if v := form.Value["title"]; len(v) > 0 {
			in.Title = v[0]
		}
		if v := form.Value["content"]; len(v) > 0 {
			in.Content = v[0]
		}
		patch, patchErr := imagePatchFromForm(c, form.Value["image"], len(form.File["image"]) > 0)
		if patchErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded image"))
		}
		in.Image = patch
	} else {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if bodyErr := c.BodyParser(&req); bodyErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Title = req.Title
		in.Content = req.Content
	}

	review, err := s.reviewService.UpdateReview(c.Context(), in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"review": review})
}

// DeleteReview handles DELETE /api/reviews/:id
func (s *Server) DeleteReview(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	if err := s.reviewService.DeleteReview(c.Context(), userID, id); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyReviews handles GET /api/myreview_list
func (s *Server) GetMyReviews(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	userID := c.Locals("userID").(uint)

	reviews, err := s.reviewService.ListMyReviews(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetOtherUsersReviews handles GET /api/otherusers_review_list and
// GET /api/otherusers_review_list/:itemId
func (s *Server) GetOtherUsersReviews(c *fiber.Ctx) error {
	var itemID uint
	if c.Params("itemId") != "" {
		id, err := s.parseID(c, "itemId")
		if err != nil {
			return nil
		}
		itemID = id
	}
	p := parsePagination(c, 20)
	userID := c.Locals("userID").(uint)

	reviews, err := s.reviewService.ListOtherUsersReviews(c.Context(), itemID, userID, p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// GetItemReviews handles GET /api/review_list/:itemId
func (s *Server) GetItemReviews(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)
	currentUserID, _ := s.optionalUserID(c)

	reviews, err := s.reviewService.ListItemReviews(c.Context(), itemID, p.Limit, p.Offset, currentUserID)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"reviews": reviews})
}

// readFormFile reads the named multipart file into memory.
func readFormFile(c *fiber.Ctx, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
