package server

import (
	"racketlog/internal/models"
	"racketlog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/auth/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), id)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateUserProfile handles PATCH /api/auth/users/:id. Only the owner may
// update their profile; the image field follows the tri-state policy.
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	in := service.UpdateProfileInput{
		ActorID:  userID,
		TargetID: id,
	}

	if form, formErr := c.MultipartForm(); formErr == nil && form != nil {
		if names := form.Value["name"]; len(names) > 0 {
			in.Name = names[0]
		}
		patch, patchErr := imagePatchFromForm(c, form.Value["image"], len(form.File["image"]) > 0)
		if patchErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Could not read uploaded image"))
		}
		in.Image = patch
	} else {
		var req struct {
			Name string `json:"name"`
		}
		if bodyErr := c.BodyParser(&req); bodyErr != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		in.Name = req.Name
	}

	user, err := s.userService.UpdateProfile(c.Context(), in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// DeleteAccount handles DELETE /api/auth/user/delete
func (s *Server) DeleteAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	if err := s.userService.DeleteAccount(c.Context(), userID); err != nil {
		return mapServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// imagePatchFromForm builds the tri-state image patch from a multipart form:
// an uploaded file replaces the image, a bare empty "image" value clears it,
// and a form without the field keeps the current image.
func imagePatchFromForm(c *fiber.Ctx, values []string, hasFile bool) (service.ImagePatch, error) {
	if hasFile {
		data, err := readFormFile(c, "image")
		if err != nil {
			return service.ImagePatch{}, err
		}
		return service.ImagePatch{Present: true, Data: data}, nil
	}
	if len(values) > 0 && values[0] == "" {
		return service.ImagePatch{Present: true, Clear: true}, nil
	}
	return service.ImagePatch{}, nil
}
