package library

type CreateBookRequest struct {
	BookKey  string `json:"book_key" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Author   string `json:"author"`
	CoverURL string `json:"cover_url"`
	Quantity int    `json:"quantity"`
}

// UpdateBookRequest uses pointers so absent fields keep current values.
type UpdateBookRequest struct {
	Title    *string `json:"title"`
	Author   *string `json:"author"`
	CoverURL *string `json:"cover_url"`
	Quantity *int    `json:"quantity"`
}

type Stats struct {
	TotalBooks    int64 `json:"total_books"`
	TotalCopies   int64 `json:"total_copies"`
	BorrowedCount int64 `json:"borrowed_count"`
	UserCount     int64 `json:"user_count"`
}
