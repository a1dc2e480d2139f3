package service

import (
	"context"
	"strings"

	"racketlog/internal/models"
	"racketlog/internal/repository"
	"racketlog/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService owns account lifecycle and profile operations.
type UserService struct {
	userRepo repository.UserRepository
	images   *ImageService
}

type RegisterInput struct {
	Email    string
	Password string
}

type UpdateProfileInput struct {
	ActorID  uint
	TargetID uint
	Name     string
	Image    ImagePatch
}

func NewUserService(userRepo repository.UserRepository, images *ImageService) *UserService {
	return &UserService{userRepo: userRepo, images: images}
}

// Register creates a new account. Emails are stored lowercase; a duplicate
// email never produces a second row.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, models.NewValidationError("Email and password are required")
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		Name:     "unset",
		Image:    models.DefaultProfileImage,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the account. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies a partial profile patch. Only the account owner may
// update it. The image field is tri-state: absent keeps the current asset,
// bytes replace it, an explicit clear reverts to the default placeholder.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.ActorID != in.TargetID {
		return nil, models.NewPermissionDeniedError("You can only update your own profile")
	}

	user, err := s.userRepo.GetByID(ctx, in.TargetID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		if err := validation.ValidateDisplayName(in.Name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		user.Name = in.Name
	}

	previousImage := user.Image
	imageChanged := false
	if in.Image.Present {
		if in.Image.Clear {
			user.Image = models.DefaultProfileImage
			imageChanged = previousImage != user.Image
		} else {
			key, err := s.images.NormalizeAndStore(ctx, ProfileImagePrefix, in.Image.Data)
			if err != nil {
				return nil, err
			}
			user.Image = key
			imageChanged = true
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if imageChanged && !in.Image.Clear {
			s.images.Release(ctx, "user", user.Image)
		}
		return nil, err
	}

	if imageChanged {
		s.images.Release(ctx, "user", previousImage)
	}
	return user, nil
}

// DeleteAccount removes the account, its reviews, favorites and authorship
// rows, then releases every orphaned media asset best-effort.
func (s *UserService) DeleteAccount(ctx context.Context, userID uint) error {
	orphaned, err := s.userRepo.DeleteAccount(ctx, userID)
	if err != nil {
		return err
	}
	for _, key := range orphaned {
		s.images.Release(ctx, "user", key)
	}
	return nil
}
