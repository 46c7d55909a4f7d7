package repository

import (
	"context"

	"liblend/internal/domain"

	"gorm.io/gorm"
)

type BorrowRepository struct {
	db *gorm.DB
}

func NewBorrowRepository(db *gorm.DB) *BorrowRepository {
	return &BorrowRepository{db: db}
}

func (r *BorrowRepository) Create(ctx context.Context, b *domain.BorrowedBook) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BorrowRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.BorrowedBook, error) {
	var b domain.BorrowedBook
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BorrowRepository) ListByUser(ctx context.Context, userID int64) ([]domain.BorrowedBook, error) {
	var borrows []domain.BorrowedBook
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("borrowed_date DESC").
		Find(&borrows).Error
	return borrows, err
}

func (r *BorrowRepository) ExistsByUserAndKey(ctx context.Context, userID int64, bookKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowedBook{}).
		Where("user_id = ? AND book_key = ?", userID, bookKey).
		Count(&count).Error
	return count > 0, err
}

func (r *BorrowRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&domain.BorrowedBook{}, id).Error
}

func (r *BorrowRepository) CountByBook(ctx context.Context, bookID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowedBook{}).
		Where("book_id = ?", bookID).
		Count(&count).Error
	return count, err
}

func (r *BorrowRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.BorrowedBook{}).Count(&count).Error
	return count, err
}
