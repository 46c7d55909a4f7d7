package repository

import (
	"context"

	"liblend/internal/domain"

	"gorm.io/gorm"
)

type BookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*domain.Book, error) {
	var b domain.Book
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BookRepository) ExistsByKey(ctx context.Context, bookKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("book_key = ?", bookKey).
		Count(&count).Error
	return count > 0, err
}

// ListAvailable returns books with at least one copy on the shelf, ordered
// by title, paginated by offset/limit.
func (r *BookRepository) ListAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.WithContext(ctx).
		Where("available > 0").
		Order("title ASC").
		Limit(limit).Offset(offset).
		Find(&books).Error
	return books, err
}

func (r *BookRepository) CountAvailable(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("available > 0").
		Count(&count).Error
	return count, err
}

func (r *BookRepository) ListAll(ctx context.Context) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.WithContext(ctx).Order("id DESC").Find(&books).Error
	return books, err
}

func (r *BookRepository) Update(ctx context.Context, b *domain.Book) error {
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BookRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.Book{}, id).Error
}

// AdjustAvailable shifts the shelf count by delta, guarded so it never goes
// negative. Returns gorm.ErrRecordNotFound when the guard blocks the update.
func (r *BookRepository) AdjustAvailable(ctx context.Context, id int64, delta int) error {
	tx := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ? AND available + ? >= 0", id, delta).
		Update("available", gorm.Expr("available + ?", delta))
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *BookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).Count(&count).Error
	return count, err
}

func (r *BookRepository) SumQuantity(ctx context.Context) (int64, error) {
	var total *int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Select("SUM(quantity)").
		Scan(&total).Error
	if err != nil || total == nil {
		return 0, err
	}
	return *total, nil
}
