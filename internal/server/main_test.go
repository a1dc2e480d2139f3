package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"racketlog/internal/cache"
	"racketlog/internal/config"
	"racketlog/internal/database"
	"racketlog/internal/models"
	"racketlog/internal/repository"
	"racketlog/internal/service"
	"racketlog/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	os.Setenv("APP_ENV", "test")
	os.Exit(m.Run())
}

// setupTestServer wires a Server against an in-memory database, miniredis and
// temp-dir file storage, and returns the Fiber app with all routes registered.
func setupTestServer(t *testing.T) (*Server, *fiber.App) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	store := storage.NewFileStorage(t.TempDir(), "/media")

	s := &Server{
		config: &config.Config{
			JWTSecret:             "test-secret",
			Env:                   "test",
			AccessTokenTTLMinutes: 30,
			RefreshTokenTTLHours:  24,
		},
		db:    db,
		redis: rdb,
		store: store,
	}
	s.userRepo = repository.NewUserRepository(db)
	s.itemRepo = repository.NewItemRepository(db)
	s.reviewRepo = repository.NewReviewRepository(db)
	s.imageService = service.NewImageService(store)
	s.userService = service.NewUserService(s.userRepo, s.imageService)
	s.itemService = service.NewItemService(s.itemRepo)
	s.reviewService = service.NewReviewService(s.reviewRepo, s.itemRepo, s.imageService)

	app := fiber.New()
	s.SetupRoutes(app)
	return s, app
}

// seedItem inserts a displayable catalog item with its brand, series and
// position rows.
func seedItem(t *testing.T, db *gorm.DB, name string) *models.Item {
	t.Helper()

	brand := &models.Brand{Name: "Brand " + name}
	require.NoError(t, db.Create(brand).Error)
	series := &models.Series{Name: "Series " + name, BrandID: brand.ID}
	require.NoError(t, db.Create(series).Error)
	position := &models.Position{Name: "Position " + name}
	require.NoError(t, db.Create(position).Error)

	item := &models.Item{
		Name:        name,
		BrandID:     brand.ID,
		SeriesID:    series.ID,
		PositionID:  position.ID,
		Photo:       models.DefaultItemPhoto,
		ReleaseDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Display:     true,
	}
	require.NoError(t, db.Create(item).Error)
	return item
}

func jsonRequest(t *testing.T, method, target string, body any, token string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// registerAndLogin creates an account through the API and returns its access
// and refresh tokens.
func registerAndLogin(t *testing.T, app *fiber.App, email string) (access, refresh string) {
	t.Helper()

	creds := map[string]string{"email": email, "password": "TestPassword123!"}

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/auth/register", creds, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode,
		"registration failed for %s", email)
	resp.Body.Close()

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/auth/login", creds, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	decodeBody(t, resp, &tokens)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)
	return tokens.AccessToken, tokens.RefreshToken
}

// createReview posts a review through the API and returns its ID.
func createReview(t *testing.T, app *fiber.App, token string, itemID uint, title, content string) uint {
	t.Helper()

	resp, err := app.Test(jsonRequest(t, http.MethodPost,
		fmt.Sprintf("/api/review/create/%d", itemID),
		map[string]string{"title": title, "content": content}, token), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Review models.Review `json:"review"`
	}
	decodeBody(t, resp, &body)
	require.NotZero(t, body.Review.ID)
	return body.Review.ID
}
