package domain

import "time"

// Book is a catalog entry. Available counts the copies currently on the
// shelf; Quantity - Available copies are out with borrowers.
type Book struct {
	ID        int64     `json:"id"`
	BookKey   string    `json:"book_key" gorm:"uniqueIndex;not null"`
	Title     string    `json:"title" gorm:"not null"`
	Author    string    `json:"author"`
	CoverURL  string    `json:"cover_url"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Available int       `json:"available" gorm:"not null;default:1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (b *Book) BorrowedCount() int {
	return b.Quantity - b.Available
}

// BorrowedBook records one copy out with one user. Book fields are
// denormalized so the borrow list survives catalog edits.
type BorrowedBook struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id" gorm:"index;not null;uniqueIndex:idx_user_book"`
	BookID       int64     `json:"book_id" gorm:"not null"`
	BookKey      string    `json:"book_key" gorm:"not null;uniqueIndex:idx_user_book"`
	Title        string    `json:"title" gorm:"not null"`
	Author       string    `json:"author"`
	CoverURL     string    `json:"cover_url"`
	BorrowedDate time.Time `json:"borrowed_date" gorm:"autoCreateTime"`
}
