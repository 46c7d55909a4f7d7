package library

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"liblend/internal/domain"
)

type MockBookRepo struct{ mock.Mock }

func (m *MockBookRepo) Create(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookRepo) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Book), args.Error(1)
}

func (m *MockBookRepo) ExistsByKey(ctx context.Context, bookKey string) (bool, error) {
	args := m.Called(ctx, bookKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookRepo) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Book), args.Error(1)
}

func (m *MockBookRepo) CountAvailable(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookRepo) ListAll(ctx context.Context) ([]domain.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Book), args.Error(1)
}

func (m *MockBookRepo) Update(ctx context.Context, b *domain.Book) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBookRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookRepo) AdjustAvailable(ctx context.Context, id int64, delta int) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockBookRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookRepo) SumQuantity(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockBorrowRepo struct{ mock.Mock }

func (m *MockBorrowRepo) Create(ctx context.Context, b *domain.BorrowedBook) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockBorrowRepo) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.BorrowedBook, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BorrowedBook), args.Error(1)
}

func (m *MockBorrowRepo) ListByUser(ctx context.Context, userID int64) ([]domain.BorrowedBook, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BorrowedBook), args.Error(1)
}

func (m *MockBorrowRepo) ExistsByUserAndKey(ctx context.Context, userID int64, bookKey string) (bool, error) {
	args := m.Called(ctx, userID, bookKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockBorrowRepo) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBorrowRepo) CountByBook(ctx context.Context, bookID int64) (int64, error) {
	args := m.Called(ctx, bookID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBorrowRepo) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockUserCounter struct{ mock.Mock }

func (m *MockUserCounter) CountByRole(ctx context.Context, role domain.UserRole) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(name string, fields map[string]any) {
	p.events = append(p.events, name)
}

func newTestService() (*Service, *MockBookRepo, *MockBorrowRepo, *MockUserCounter, *recordingPublisher) {
	books := new(MockBookRepo)
	borrows := new(MockBorrowRepo)
	users := new(MockUserCounter)
	pub := &recordingPublisher{}
	return NewService(books, borrows, users, pub), books, borrows, users, pub
}

func TestCreateBook(t *testing.T) {
	t.Run("defaults quantity to one", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("ExistsByKey", mock.Anything, "gatsby").Return(false, nil)
		books.On("Create", mock.Anything, mock.AnythingOfType("*domain.Book")).Return(nil)

		book, err := svc.CreateBook(context.Background(), CreateBookRequest{
			BookKey: "gatsby",
			Title:   "The Great Gatsby",
		})

		require.NoError(t, err)
		assert.Equal(t, 1, book.Quantity)
		assert.Equal(t, 1, book.Available)
	})

	t.Run("duplicate key rejected", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("ExistsByKey", mock.Anything, "gatsby").Return(true, nil)

		_, err := svc.CreateBook(context.Background(), CreateBookRequest{BookKey: "gatsby", Title: "x"})

		assert.ErrorIs(t, err, ErrBookKeyExists)
		books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("negative quantity rejected", func(t *testing.T) {
		svc, _, _, _, _ := newTestService()

		_, err := svc.CreateBook(context.Background(), CreateBookRequest{BookKey: "x", Title: "x", Quantity: -3})

		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})

	t.Run("insert losing a key race maps to conflict", func(t *testing.T) {
		// A concurrent create slips in between the existence check and
		// the insert; the unique index rejects the second insert.
		svc, books, _, _, _ := newTestService()
		books.On("ExistsByKey", mock.Anything, "gatsby").Return(false, nil)
		books.On("Create", mock.Anything, mock.AnythingOfType("*domain.Book")).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_library_books_book_key"})

		_, err := svc.CreateBook(context.Background(), CreateBookRequest{BookKey: "gatsby", Title: "x"})

		assert.ErrorIs(t, err, ErrBookKeyExists)
	})
}

func TestUpdateBook_QuantityRules(t *testing.T) {
	// 5 copies, 3 out with borrowers.
	current := func() *domain.Book {
		return &domain.Book{ID: 7, BookKey: "gatsby", Title: "g", Quantity: 5, Available: 2}
	}

	t.Run("shrink below borrowed count refused", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(7)).Return(current(), nil)

		q := 2
		_, err := svc.UpdateBook(context.Background(), 7, UpdateBookRequest{Quantity: &q})

		assert.ErrorIs(t, err, ErrQuantityTooLow)
	})

	t.Run("grow recomputes available", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(7)).Return(current(), nil)
		books.On("Update", mock.Anything, mock.AnythingOfType("*domain.Book")).Return(nil)

		q := 10
		book, err := svc.UpdateBook(context.Background(), 7, UpdateBookRequest{Quantity: &q})

		require.NoError(t, err)
		assert.Equal(t, 10, book.Quantity)
		assert.Equal(t, 7, book.Available)
	})

	t.Run("unknown book", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(99)).Return(nil, gorm.ErrRecordNotFound)

		title := "new"
		_, err := svc.UpdateBook(context.Background(), 99, UpdateBookRequest{Title: &title})

		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

func TestDeleteBook(t *testing.T) {
	t.Run("refused while copies are out", func(t *testing.T) {
		svc, books, borrows, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(7)).Return(&domain.Book{ID: 7, Quantity: 3, Available: 1}, nil)
		borrows.On("CountByBook", mock.Anything, int64(7)).Return(int64(2), nil)

		err := svc.DeleteBook(context.Background(), 7)

		assert.ErrorIs(t, err, ErrCopiesBorrowed)
		books.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("deleted once every copy is back", func(t *testing.T) {
		svc, books, borrows, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(7)).Return(&domain.Book{ID: 7, Quantity: 3, Available: 3}, nil)
		borrows.On("CountByBook", mock.Anything, int64(7)).Return(int64(0), nil)
		books.On("Delete", mock.Anything, int64(7)).Return(nil)

		err := svc.DeleteBook(context.Background(), 7)

		assert.NoError(t, err)
	})
}

func TestBorrow(t *testing.T) {
	shelf := func(available int) *domain.Book {
		return &domain.Book{ID: 3, BookKey: "moby", Title: "Moby Dick", Author: "Melville", Quantity: 2, Available: available}
	}

	t.Run("success decrements shelf and records borrow", func(t *testing.T) {
		svc, books, borrows, _, pub := newTestService()
		books.On("GetByID", mock.Anything, int64(3)).Return(shelf(1), nil)
		borrows.On("ExistsByUserAndKey", mock.Anything, int64(42), "moby").Return(false, nil)
		books.On("AdjustAvailable", mock.Anything, int64(3), -1).Return(nil)
		borrows.On("Create", mock.Anything, mock.AnythingOfType("*domain.BorrowedBook")).Return(nil)

		borrow, err := svc.Borrow(context.Background(), 42, 3)

		require.NoError(t, err)
		assert.Equal(t, int64(42), borrow.UserID)
		assert.Equal(t, "moby", borrow.BookKey)
		assert.Equal(t, "Moby Dick", borrow.Title)
		assert.Contains(t, pub.events, "book.borrowed")
	})

	t.Run("no copies on the shelf", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(3)).Return(shelf(0), nil)

		_, err := svc.Borrow(context.Background(), 42, 3)

		assert.ErrorIs(t, err, ErrNotAvailable)
	})

	t.Run("second copy of the same title refused", func(t *testing.T) {
		svc, books, borrows, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(3)).Return(shelf(1), nil)
		borrows.On("ExistsByUserAndKey", mock.Anything, int64(42), "moby").Return(true, nil)

		_, err := svc.Borrow(context.Background(), 42, 3)

		assert.ErrorIs(t, err, ErrAlreadyBorrowed)
		books.AssertNotCalled(t, "AdjustAvailable", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost duplicate-borrow race maps to conflict and restores the copy", func(t *testing.T) {
		// The same user borrows the same title twice concurrently: both
		// pass the existence check, one insert trips idx_user_book.
		svc, books, borrows, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(3)).Return(shelf(1), nil)
		borrows.On("ExistsByUserAndKey", mock.Anything, int64(42), "moby").Return(false, nil)
		books.On("AdjustAvailable", mock.Anything, int64(3), -1).Return(nil)
		borrows.On("Create", mock.Anything, mock.AnythingOfType("*domain.BorrowedBook")).
			Return(&pgconn.PgError{Code: "23505", ConstraintName: "idx_user_book"})
		books.On("AdjustAvailable", mock.Anything, int64(3), 1).Return(nil)

		_, err := svc.Borrow(context.Background(), 42, 3)

		assert.ErrorIs(t, err, ErrAlreadyBorrowed)
		books.AssertCalled(t, "AdjustAvailable", mock.Anything, int64(3), 1)
	})

	t.Run("lost race to the last copy", func(t *testing.T) {
		svc, books, borrows, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(3)).Return(shelf(1), nil)
		borrows.On("ExistsByUserAndKey", mock.Anything, int64(42), "moby").Return(false, nil)
		books.On("AdjustAvailable", mock.Anything, int64(3), -1).Return(gorm.ErrRecordNotFound)

		_, err := svc.Borrow(context.Background(), 42, 3)

		assert.ErrorIs(t, err, ErrNotAvailable)
		borrows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown book", func(t *testing.T) {
		svc, books, _, _, _ := newTestService()
		books.On("GetByID", mock.Anything, int64(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Borrow(context.Background(), 42, 99)

		assert.ErrorIs(t, err, ErrBookNotFound)
	})
}

func TestReturn(t *testing.T) {
	t.Run("success restores the copy", func(t *testing.T) {
		svc, books, borrows, _, pub := newTestService()
		borrows.On("GetByIDForUser", mock.Anything, int64(11), int64(42)).
			Return(&domain.BorrowedBook{ID: 11, UserID: 42, BookID: 3, BookKey: "moby"}, nil)
		borrows.On("Delete", mock.Anything, int64(11)).Return(nil)
		books.On("AdjustAvailable", mock.Anything, int64(3), 1).Return(nil)

		err := svc.Return(context.Background(), 42, 11)

		require.NoError(t, err)
		assert.Contains(t, pub.events, "book.returned")
	})

	t.Run("only the borrower can return", func(t *testing.T) {
		svc, _, borrows, _, _ := newTestService()
		borrows.On("GetByIDForUser", mock.Anything, int64(11), int64(99)).Return(nil, gorm.ErrRecordNotFound)

		err := svc.Return(context.Background(), 99, 11)

		assert.ErrorIs(t, err, ErrBorrowNotFound)
		borrows.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("return survives a deleted book", func(t *testing.T) {
		svc, books, borrows, _, _ := newTestService()
		borrows.On("GetByIDForUser", mock.Anything, int64(11), int64(42)).
			Return(&domain.BorrowedBook{ID: 11, UserID: 42, BookID: 3}, nil)
		borrows.On("Delete", mock.Anything, int64(11)).Return(nil)
		books.On("AdjustAvailable", mock.Anything, int64(3), 1).Return(gorm.ErrRecordNotFound)

		err := svc.Return(context.Background(), 42, 11)

		assert.NoError(t, err)
	})
}

func TestListAvailable_ClampsPaging(t *testing.T) {
	svc, books, _, _, _ := newTestService()
	books.On("CountAvailable", mock.Anything).Return(int64(3), nil)
	books.On("ListAvailable", mock.Anything, 20, 0).Return([]domain.Book{{ID: 1}, {ID: 2}, {ID: 3}}, nil)

	got, total, err := svc.ListAvailable(context.Background(), -5, -1)

	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, got, 3)
}

func TestStats(t *testing.T) {
	svc, books, borrows, users, _ := newTestService()
	books.On("Count", mock.Anything).Return(int64(4), nil)
	books.On("SumQuantity", mock.Anything).Return(int64(9), nil)
	borrows.On("CountAll", mock.Anything).Return(int64(2), nil)
	users.On("CountByRole", mock.Anything, domain.RoleUser).Return(int64(5), nil)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &Stats{TotalBooks: 4, TotalCopies: 9, BorrowedCount: 2, UserCount: 5}, stats)
}
