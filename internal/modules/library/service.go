package library

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"liblend/internal/database"
	"liblend/internal/domain"
)

// Publisher receives lending lifecycle events for the in-process bus.
type Publisher interface {
	Publish(name string, fields map[string]any)
}

// Service holds the catalog and lending rules.
type Service struct {
	books   BookRepositoryInterface
	borrows BorrowRepositoryInterface
	users   UserCounter
	events  Publisher
}

func NewService(books BookRepositoryInterface, borrows BorrowRepositoryInterface, users UserCounter, events Publisher) *Service {
	return &Service{books: books, borrows: borrows, users: users, events: events}
}

/* ---------- CATALOG (admin) ---------- */

func (s *Service) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	exists, err := s.books.ExistsByKey(ctx, req.BookKey)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrBookKeyExists
	}

	book := &domain.Book{
		BookKey:   req.BookKey,
		Title:     req.Title,
		Author:    req.Author,
		CoverURL:  req.CoverURL,
		Quantity:  req.Quantity,
		Available: req.Quantity,
	}
	if err := s.books.Create(ctx, book); err != nil {
		// The existence check raced a concurrent insert on book_key.
		if database.IsUniqueViolation(err) {
			return nil, ErrBookKeyExists
		}
		return nil, err
	}

	s.publish("book.created", map[string]any{"book_id": book.ID, "book_key": book.BookKey})
	return book, nil
}

// UpdateBook edits catalog fields. Shrinking quantity recomputes the shelf
// count from the borrowed count and refuses to drop below what is out with
// borrowers.
func (s *Service) UpdateBook(ctx context.Context, id int64, req UpdateBookRequest) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.CoverURL != nil {
		book.CoverURL = *req.CoverURL
	}
	if req.Quantity != nil {
		if *req.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
		borrowed := book.BorrowedCount()
		if *req.Quantity < borrowed {
			return nil, ErrQuantityTooLow
		}
		book.Quantity = *req.Quantity
		book.Available = *req.Quantity - borrowed
	}

	if err := s.books.Update(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a catalog entry. The borrow table is the authority on
// outstanding copies, not the denormalized available counter.
func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return err
	}

	out, err := s.borrows.CountByBook(ctx, book.ID)
	if err != nil {
		return err
	}
	if out > 0 {
		return ErrCopiesBorrowed
	}

	return s.books.Delete(ctx, id)
}

func (s *Service) ListAllBooks(ctx context.Context) ([]domain.Book, error) {
	return s.books.ListAll(ctx)
}

/* ---------- BROWSING ---------- */

// ListAvailable pages through books with copies on the shelf.
func (s *Service) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Book, int64, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	total, err := s.books.CountAvailable(ctx)
	if err != nil {
		return nil, 0, err
	}
	books, err := s.books.ListAvailable(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

/* ---------- LENDING ---------- */

func (s *Service) Borrow(ctx context.Context, userID, bookID int64) (*domain.BorrowedBook, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, err
	}

	if book.Available < 1 {
		return nil, ErrNotAvailable
	}

	already, err := s.borrows.ExistsByUserAndKey(ctx, userID, book.BookKey)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, ErrAlreadyBorrowed
	}

	// The guarded decrement loses a race to the last copy rather than
	// going negative.
	if err := s.books.AdjustAvailable(ctx, book.ID, -1); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotAvailable
		}
		return nil, err
	}

	borrow := &domain.BorrowedBook{
		UserID:   userID,
		BookID:   book.ID,
		BookKey:  book.BookKey,
		Title:    book.Title,
		Author:   book.Author,
		CoverURL: book.CoverURL,
	}
	if err := s.borrows.Create(ctx, borrow); err != nil {
		// Hand the copy back; the borrow row never landed.
		_ = s.books.AdjustAvailable(ctx, book.ID, 1)
		// A concurrent borrow of the same title won the idx_user_book race.
		if database.IsUniqueViolation(err) {
			return nil, ErrAlreadyBorrowed
		}
		return nil, err
	}

	s.publish("book.borrowed", map[string]any{"user_id": userID, "book_id": book.ID})
	return borrow, nil
}

func (s *Service) Return(ctx context.Context, userID, borrowID int64) error {
	borrow, err := s.borrows.GetByIDForUser(ctx, borrowID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBorrowNotFound
		}
		return err
	}

	if err := s.borrows.Delete(ctx, borrow.ID); err != nil {
		return err
	}
	if err := s.books.AdjustAvailable(ctx, borrow.BookID, 1); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	s.publish("book.returned", map[string]any{"user_id": userID, "book_id": borrow.BookID})
	return nil
}

func (s *Service) ListBorrowed(ctx context.Context, userID int64) ([]domain.BorrowedBook, error) {
	return s.borrows.ListByUser(ctx, userID)
}

/* ---------- STATISTICS ---------- */

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	totalBooks, err := s.books.Count(ctx)
	if err != nil {
		return nil, err
	}
	totalCopies, err := s.books.SumQuantity(ctx)
	if err != nil {
		return nil, err
	}
	borrowed, err := s.borrows.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.users.CountByRole(ctx, domain.RoleUser)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalBooks:    totalBooks,
		TotalCopies:   totalCopies,
		BorrowedCount: borrowed,
		UserCount:     users,
	}, nil
}

func (s *Service) publish(name string, fields map[string]any) {
	if s.events != nil {
		s.events.Publish(name, fields)
	}
}
