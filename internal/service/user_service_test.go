package service

import (
	"context"
	"testing"

	"racketlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateFn        func(context.Context, *models.User) error
	deleteAccountFn func(context.Context, uint) ([]string, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) DeleteAccount(ctx context.Context, id uint) ([]string, error) {
	return s.deleteAccountFn(ctx, id)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:       func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByEmailFn:    func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:        func(_ context.Context, u *models.User) error { u.ID = 1; return nil },
		updateFn:        func(_ context.Context, _ *models.User) error { return nil },
		deleteAccountFn: func(_ context.Context, _ uint) ([]string, error) { return nil, nil },
	}
}

func newTestUserService(userRepo *userRepoStub, store *storageStub) *UserService {
	return NewUserService(userRepo, NewImageService(store))
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"Empty Email", "", "ValidPassword123!"},
		{"Empty Password", "user@example.com", ""},
		{"Bad Email", "not-an-email", "ValidPassword123!"},
		{"Weak Password", "user@example.com", "short"},
		{"No Special Char", "user@example.com", "LongPassword1234"},
	}

	svc := newTestUserService(noopUserRepo(), newStorageStub())
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.Register(context.Background(), RegisterInput{Email: tt.email, Password: tt.password})
			var appErr *models.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		})
	}
}

func TestRegisterNormalizesEmailAndDefaults(t *testing.T) {
	var created *models.User
	userRepo := noopUserRepo()
	userRepo.createFn = func(_ context.Context, u *models.User) error {
		u.ID = 1
		created = u
		return nil
	}
	svc := newTestUserService(userRepo, newStorageStub())

	user, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Player@Example.COM ",
		Password: "ValidPassword123!",
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "player@example.com", user.Email)
	assert.Equal(t, "unset", user.Name)
	assert.Equal(t, models.DefaultProfileImage, user.Image)
	assert.True(t, user.IsActive)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("ValidPassword123!")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	userRepo := noopUserRepo()
	userRepo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		return &models.User{ID: 1, Email: email}, nil
	}
	svc := newTestUserService(userRepo, newStorageStub())

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@example.com",
		Password: "ValidPassword123!",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "CONFLICT", appErr.Code)
	assert.Contains(t, appErr.Message, "already registered")
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ValidPassword123!"), bcrypt.MinCost)
	require.NoError(t, err)

	account := &models.User{ID: 1, Email: "player@example.com", Password: string(hash), IsActive: true}
	userRepo := noopUserRepo()
	userRepo.getByEmailFn = func(_ context.Context, email string) (*models.User, error) {
		if email == account.Email {
			return account, nil
		}
		return nil, nil
	}
	svc := newTestUserService(userRepo, newStorageStub())

	t.Run("Valid Credentials", func(t *testing.T) {
		user, err := svc.Authenticate(context.Background(), "Player@Example.com", "ValidPassword123!")
		require.NoError(t, err)
		assert.Equal(t, uint(1), user.ID)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "player@example.com", "WrongPassword123!")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	})

	t.Run("Unknown Email", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "ghost@example.com", "ValidPassword123!")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	})

	t.Run("Deactivated Account", func(t *testing.T) {
		account.IsActive = false
		defer func() { account.IsActive = true }()
		_, err := svc.Authenticate(context.Background(), "player@example.com", "ValidPassword123!")
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "UNAUTHORIZED", appErr.Code)
	})
}

func TestUpdateProfileOwnership(t *testing.T) {
	svc := newTestUserService(noopUserRepo(), newStorageStub())

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ActorID: 2, TargetID: 1, Name: "intruder",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PERMISSION_DENIED", appErr.Code)
}

func TestUpdateProfileNameValidation(t *testing.T) {
	svc := newTestUserService(noopUserRepo(), newStorageStub())

	_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ActorID: 1, TargetID: 1,
		Name: "this display name is far too long to be accepted",
	})
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestUpdateProfileClearImage(t *testing.T) {
	store := newStorageStub()
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Image: "profiles/old.jpg"}, nil
	}
	svc := newTestUserService(userRepo, store)

	user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ActorID: 1, TargetID: 1,
		Image: ImagePatch{Present: true, Clear: true},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfileImage, user.Image)
	assert.Contains(t, store.deleted, "profiles/old.jpg")
}

func TestUpdateProfileClearWhenAlreadyDefault(t *testing.T) {
	store := newStorageStub()
	userRepo := noopUserRepo()
	userRepo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Image: models.DefaultProfileImage}, nil
	}
	svc := newTestUserService(userRepo, store)

	user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
		ActorID: 1, TargetID: 1,
		Image: ImagePatch{Present: true, Clear: true},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProfileImage, user.Image)
	assert.Empty(t, store.deleted)
}

func TestDeleteAccountReleasesOrphanedAssets(t *testing.T) {
	store := newStorageStub()
	store.objects["profiles/gone.jpg"] = []byte("x")
	store.objects["reviews/gone.jpg"] = []byte("x")

	userRepo := noopUserRepo()
	userRepo.deleteAccountFn = func(_ context.Context, _ uint) ([]string, error) {
		return []string{"profiles/gone.jpg", "reviews/gone.jpg", models.DefaultProfileImage}, nil
	}
	svc := newTestUserService(userRepo, store)

	require.NoError(t, svc.DeleteAccount(context.Background(), 1))
	assert.ElementsMatch(t, []string{"profiles/gone.jpg", "reviews/gone.jpg"}, store.deleted)
}
