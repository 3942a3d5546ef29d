package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/openlibro/library-api/internal/config"
	"github.com/openlibro/library-api/internal/hash"
	"github.com/openlibro/library-api/internal/models"
	"github.com/openlibro/library-api/internal/repo"
	"github.com/openlibro/library-api/pkg/db"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
	)
	gormDB, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	r := repo.GormRepo{DB: gormDB}

	books := []models.Book{
		{Title: "Clean Code", Author: "Robert C. Martin", IsAvailable: true},
		{Title: "The Pragmatic Programmer", Author: "Andrew Hunt", IsAvailable: true},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", IsAvailable: true},
		{Title: "Go in Action", Author: "William Kennedy", IsAvailable: true},
	}
	for i := range books {
		if err := r.CreateBook(ctx, &books[i]); err != nil {
			log.Fatalf("seed book %q: %v", books[i].Title, err)
		}
	}

	adminExists, err := r.AdminExists(ctx)
	if err != nil {
		log.Fatalf("admin check: %v", err)
	}
	if !adminExists {
		pwHash, err := hash.HashPassword("admin123")
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		admin := &models.User{
			Name:         "Admin",
			Email:        "admin@library.local",
			PasswordHash: pwHash,
			Role:         "admin",
		}
		if err := r.CreateUser(ctx, admin); err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		log.Printf("seeded admin %s", admin.Email)
	}

	log.Printf("seeded %d books", len(books))
}
