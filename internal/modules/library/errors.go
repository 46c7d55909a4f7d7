package library

import "errors"

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrBookKeyExists   = errors.New("book with this book_key already exists")
	ErrNotAvailable    = errors.New("book is not available")
	ErrAlreadyBorrowed = errors.New("book already borrowed by this user")
	ErrBorrowNotFound  = errors.New("borrow record not found")
	ErrCopiesBorrowed  = errors.New("copies are currently borrowed")
	ErrQuantityTooLow  = errors.New("quantity below borrowed count")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)
