package library

import (
	"context"

	"liblend/internal/domain"
)

// BookRepositoryInterface — only the catalog methods the library service uses.
type BookRepositoryInterface interface {
	Create(ctx context.Context, b *domain.Book) error
	GetByID(ctx context.Context, id int64) (*domain.Book, error)
	ExistsByKey(ctx context.Context, bookKey string) (bool, error)
	ListAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error)
	CountAvailable(ctx context.Context) (int64, error)
	ListAll(ctx context.Context) ([]domain.Book, error)
	Update(ctx context.Context, b *domain.Book) error
	Delete(ctx context.Context, id int64) error
	AdjustAvailable(ctx context.Context, id int64, delta int) error
	Count(ctx context.Context) (int64, error)
	SumQuantity(ctx context.Context) (int64, error)
}

// BorrowRepositoryInterface — lending records.
type BorrowRepositoryInterface interface {
	Create(ctx context.Context, b *domain.BorrowedBook) error
	GetByIDForUser(ctx context.Context, id, userID int64) (*domain.BorrowedBook, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.BorrowedBook, error)
	ExistsByUserAndKey(ctx context.Context, userID int64, bookKey string) (bool, error)
	Delete(ctx context.Context, id int64) error
	CountByBook(ctx context.Context, bookID int64) (int64, error)
	CountAll(ctx context.Context) (int64, error)
}

// UserCounter — the one statistics read on users this module needs.
type UserCounter interface {
	CountByRole(ctx context.Context, role domain.UserRole) (int64, error)
}
