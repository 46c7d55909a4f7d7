package main

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"liblend/internal/config"
	"liblend/internal/database"
	"liblend/internal/domain"
	"liblend/internal/repository"
)

// Development seed: two demo accounts and a starter catalog. Existing rows
// are left alone, so running it twice is safe.
func main() {
	log := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Book{}, &domain.BorrowedBook{}); err != nil {
		log.WithError(err).Fatal("database migration failed")
	}

	ctx := context.Background()
	users := repository.NewUserRepository(db)
	books := repository.NewBookRepository(db)

	seedUsers(ctx, log, users)
	seedBooks(ctx, log, books)
}

func seedUsers(ctx context.Context, log *logrus.Logger, users *repository.UserRepository) {
	accounts := []struct {
		username string
		password string
		role     domain.UserRole
	}{
		{"admin", "admin123", domain.RoleAdmin},
		{"user", "user123", domain.RoleUser},
	}

	for _, a := range accounts {
		if _, err := users.GetByUsername(ctx, a.username); err == nil {
			log.WithField("username", a.username).Info("user already present, skipping")
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(a.password), bcrypt.DefaultCost)
		if err != nil {
			log.WithError(err).Fatal("failed to hash password")
		}
		if err := users.Create(ctx, &domain.User{
			Username:     a.username,
			PasswordHash: string(hash),
			Role:         a.role,
		}); err != nil {
			log.WithError(err).WithField("username", a.username).Fatal("failed to create user")
		}
		log.WithFields(logrus.Fields{"username": a.username, "role": a.role}).Info("user created")
	}
}

func seedBooks(ctx context.Context, log *logrus.Logger, books *repository.BookRepository) {
	catalog := []domain.Book{
		{BookKey: "OL123456W", Title: "Harry Potter and the Philosophers Stone", Author: "J.K. Rowling", CoverURL: "https://covers.openlibrary.org/b/id/8739161-M.jpg", Quantity: 5, Available: 5},
		{BookKey: "OL123457W", Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", CoverURL: "https://covers.openlibrary.org/b/id/8739162-M.jpg", Quantity: 3, Available: 3},
		{BookKey: "OL123458W", Title: "1984", Author: "George Orwell", CoverURL: "https://covers.openlibrary.org/b/id/8739163-M.jpg", Quantity: 4, Available: 4},
		{BookKey: "OL123459W", Title: "To Kill a Mockingbird", Author: "Harper Lee", CoverURL: "https://covers.openlibrary.org/b/id/8739164-M.jpg", Quantity: 2, Available: 2},
	}

	for _, b := range catalog {
		exists, err := books.ExistsByKey(ctx, b.BookKey)
		if err != nil {
			log.WithError(err).Fatal("failed to check catalog")
		}
		if exists {
			log.WithField("book_key", b.BookKey).Info("book already present, skipping")
			continue
		}

		book := b
		if err := books.Create(ctx, &book); err != nil {
			log.WithError(err).WithField("book_key", b.BookKey).Fatal("failed to create book")
		}
		log.WithFields(logrus.Fields{"book_key": b.BookKey, "title": b.Title}).Info("book created")
	}
}
