// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"racketlog/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumReviews  int
	ShouldClean bool
}

var brandCatalog = map[string][]string{
	"Yonex":    {"Geobreak", "Voltrage", "Nanoforce"},
	"Mizuno":   {"Scud", "Xyst", "Deep Impact"},
	"Gosen":    {"Axthena", "Customedge"},
	"Dunlop":   {"Diacloud", "Aerostar"},
	"Kawasaki": {"Blast", "Honor"},
}

var positionNames = []string{"forward", "back", "all-round"}

// Seeder populates the database with demo data.
type Seeder struct {
	db  *gorm.DB
	rng *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:  db,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes seeded rows in dependency order.
func (s *Seeder) ClearAll() error {
	log.Println("Clearing existing data...")
	for _, model := range []any{
		&models.Favorite{}, &models.UserReview{}, &models.Review{},
		&models.Item{}, &models.Series{}, &models.Position{}, &models.Brand{},
		&models.User{},
	} {
		if err := s.db.Unscoped().Where("1 = 1").Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Seed populates the catalog and generates users, reviews and favorites.
func (s *Seeder) Seed(opts Options) error {
	log.Printf("Seeding %d users and %d reviews...", opts.NumUsers, opts.NumReviews)

	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	items, err := s.seedCatalog()
	if err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Printf("✓ %d catalog items created", len(items))

	users, err := s.seedUsers(opts.NumUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	reviews, err := s.seedReviews(users, items, opts.NumReviews)
	if err != nil {
		return fmt.Errorf("seed reviews: %w", err)
	}
	log.Printf("✓ %d reviews created", len(reviews))

	if err := s.seedFavorites(users, reviews); err != nil {
		return fmt.Errorf("seed favorites: %w", err)
	}
	log.Println("✓ favorites created and counts recomputed")

	log.Println("Database seeding completed successfully")
	return nil
}

func (s *Seeder) seedCatalog() ([]models.Item, error) {
	var positions []models.Position
	for _, name := range positionNames {
		p := models.Position{Name: name}
		if err := s.db.Create(&p).Error; err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	var items []models.Item
	for brandName, seriesNames := range brandCatalog {
		brand := models.Brand{Name: brandName}
		if err := s.db.Create(&brand).Error; err != nil {
			return nil, err
		}
		for _, seriesName := range seriesNames {
			series := models.Series{Name: seriesName, BrandID: brand.ID}
			if err := s.db.Create(&series).Error; err != nil {
				return nil, err
			}
			// a couple of models per series
			for n := 0; n < 2; n++ {
				item := models.Item{
					Name:        fmt.Sprintf("%s %d", seriesName, 50+s.rng.Intn(50)),
					BrandID:     brand.ID,
					SeriesID:    series.ID,
					PositionID:  positions[s.rng.Intn(len(positions))].ID,
					Photo:       models.DefaultItemPhoto,
					ReleaseDate: gofakeit.DateRange(time.Now().AddDate(-5, 0, 0), time.Now()),
					Display:     true,
				}
				if err := s.db.Create(&item).Error; err != nil {
					return nil, err
				}
				items = append(items, item)
			}
		}
	}
	return items, nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	// single shared hash keeps seeding fast
	hashed, err := bcrypt.GenerateFromPassword([]byte("Password123!demo"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	var users []models.User
	for i := 0; i < count; i++ {
		user := models.User{
			Email:    fmt.Sprintf("%d.%s", i, gofakeit.Email()),
			Password: string(hashed),
			Name:     gofakeit.FirstName(),
			Image:    models.DefaultProfileImage,
			IsActive: true,
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) seedReviews(users []models.User, items []models.Item, count int) ([]models.Review, error) {
	if len(users) == 0 || len(items) == 0 {
		return nil, nil
	}

	var reviews []models.Review
	for i := 0; i < count; i++ {
		user := users[s.rng.Intn(len(users))]
		item := items[s.rng.Intn(len(items))]
		review := models.Review{
			UserID:    user.ID,
			ItemID:    item.ID,
			Title:     gofakeit.Sentence(4),
			Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
			CreatedAt: gofakeit.DateRange(time.Now().AddDate(0, -6, 0), time.Now()),
		}
		err := s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
			return tx.Create(&models.UserReview{UserID: user.ID, ReviewID: review.ID}).Error
		})
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}

func (s *Seeder) seedFavorites(users []models.User, reviews []models.Review) error {
	for i := range reviews {
		fans := s.rng.Intn(len(users)/2 + 1)
		picked := s.rng.Perm(len(users))[:fans]
		for _, idx := range picked {
			fav := models.Favorite{UserID: users[idx].ID, ReviewID: reviews[i].ID}
			if err := s.db.Create(&fav).Error; err != nil {
				return err
			}
		}
		// keep the denormalized counter honest
		var count int64
		if err := s.db.Model(&models.Favorite{}).
			Where("review_id = ?", reviews[i].ID).
			Count(&count).Error; err != nil {
			return err
		}
		if err := s.db.Model(&models.Review{}).
			Where("id = ?", reviews[i].ID).
			Update("favorites_count", count).Error; err != nil {
			return err
		}
	}
	return nil
}
