// Command main runs the database seeder for Racketlog.
package main

import (
	"flag"
	"log"

	"racketlog/internal/config"
	"racketlog/internal/database"
	"racketlog/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numReviews := flag.Int("reviews", 200, "Number of reviews to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Println("===============")
	log.Printf("Target: %d users, %d reviews, clean=%v\n", *numUsers, *numReviews, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	s := seed.NewSeeder(db)
	if err := s.Seed(seed.Options{
		NumUsers:    *numUsers,
		NumReviews:  *numReviews,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
