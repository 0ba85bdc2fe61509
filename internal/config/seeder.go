package config

import (
	"log"

	"libralend/internal/adapters/persistence/models"
	"libralend/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedLibrarian(); err != nil {
		log.Printf("⚠️ Librarian seeder skipped: %v", err)
	}
	if err := s.seedCatalog(); err != nil {
		log.Printf("⚠️ Catalog seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedLibrarian seeds a default account for development/testing only.
// In production, accounts come in through registration.
func (s *Seeder) seedLibrarian() error {
	var count int64
	s.db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := password.Hash("librarian123")
	if err != nil {
		return err
	}

	librarian := &models.User{
		Name:     "Librarian",
		Email:    "librarian@libralend.local",
		Password: hashed,
	}

	if err := s.db.Create(librarian).Error; err != nil {
		return err
	}

	log.Println("🌱 Seeded default librarian account")
	return nil
}

// seedCatalog seeds a handful of titles with copies so a fresh dev
// database is immediately lendable
func (s *Seeder) seedCatalog() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil
	}

	isbn := func(v string) *string { return &v }

	books := []struct {
		book   models.Book
		copies int
	}{
		{models.Book{Title: "The Go Programming Language", Author: "Donovan, Kernighan", ISBN: isbn("978-0134190440")}, 3},
		{models.Book{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", ISBN: isbn("978-1449373320")}, 2},
		{models.Book{Title: "The Mythical Man-Month", Author: "Frederick P. Brooks Jr."}, 1},
	}

	for i := range books {
		if err := s.db.Create(&books[i].book).Error; err != nil {
			return err
		}
		for c := 0; c < books[i].copies; c++ {
			copy := models.BookCopy{BookID: books[i].book.ID}
			if err := s.db.Create(&copy).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("🌱 Seeded %d books with copies", len(books))
	return nil
}
