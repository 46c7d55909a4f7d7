package library

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"liblend/internal/domain"
	"liblend/internal/middleware"
	"liblend/internal/pkg/response"
)

// ResponseCache is the slice of the middleware cache the handler uses: a
// route middleware on the public catalog listing plus purge-on-write.
type ResponseCache interface {
	Handler() gin.HandlerFunc
	Invalidate()
}

type Handler struct {
	service *Service
	cache   ResponseCache
}

// NewHandler wires the lending service. cache may be nil when response
// caching is disabled.
func NewHandler(service *Service, cache ResponseCache) *Handler {
	return &Handler{service: service, cache: cache}
}

// RegisterRoutes mounts the catalog and lending routes on the protected
// group. Scope checks live here so the route table reads as the access
// policy.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	// Only the shared catalog listing is cacheable: its body is identical
	// for every caller holding the scope. The cache sits after the scope
	// check so it can never answer a request authorization would refuse,
	// and per-user or admin-only routes stay uncached.
	listBooks := []gin.HandlerFunc{middleware.RequireScope(domain.ScopeReadBooks)}
	if h.cache != nil {
		listBooks = append(listBooks, h.cache.Handler())
	}
	listBooks = append(listBooks, h.ListBooks)
	protected.GET("/books", listBooks...)
	protected.GET("/books/all", middleware.RequireScope(domain.ScopeManageLibrary), h.ListAllBooks)
	protected.POST("/books", middleware.RequireScope(domain.ScopeWriteBooks), h.CreateBook)
	protected.PUT("/books/:id", middleware.RequireScope(domain.ScopeWriteBooks), h.UpdateBook)
	protected.DELETE("/books/:id", middleware.RequireScope(domain.ScopeManageLibrary), h.DeleteBook)

	protected.GET("/borrows", middleware.RequireScope(domain.ScopeBorrowWrite), h.ListBorrows)
	protected.POST("/books/:id/borrow", middleware.RequireScope(domain.ScopeBorrowWrite), h.Borrow)
	protected.DELETE("/borrows/:id", middleware.RequireScope(domain.ScopeBorrowWrite), h.Return)

	protected.GET("/stats", middleware.RequireScope(domain.ScopeReadStats), h.Stats)
}

/* ---------- BROWSING ---------- */

func (h *Handler) ListBooks(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	books, total, err := h.service.ListAvailable(c.Request.Context(), limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list books")
		return
	}

	links := response.Links{
		"self": {Href: fmt.Sprintf("/api/v1/books?limit=%d&offset=%d", limit, offset), Method: "GET"},
	}
	if int64(offset+limit) < total {
		links["next"] = response.Link{Href: fmt.Sprintf("/api/v1/books?limit=%d&offset=%d", limit, offset+limit), Method: "GET"}
	}
	if offset > 0 {
		prev := offset - limit
		if prev < 0 {
			prev = 0
		}
		links["prev"] = response.Link{Href: fmt.Sprintf("/api/v1/books?limit=%d&offset=%d", limit, prev), Method: "GET"}
	}

	response.Success(c, http.StatusOK, "Books retrieved", books, links, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) ListAllBooks(c *gin.Context) {
	books, err := h.service.ListAllBooks(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list books")
		return
	}

	response.Success(c, http.StatusOK, "Full catalog retrieved", books, response.Links{
		"self":  {Href: "/api/v1/books/all", Method: "GET"},
		"books": {Href: "/api/v1/books", Method: "GET"},
	}, gin.H{"total": len(books)})
}

/* ---------- CATALOG (admin) ---------- */

func (h *Handler) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "book_key and title are required")
		return
	}

	book, err := h.service.CreateBook(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err, "failed to create book")
		return
	}
	h.invalidate()

	response.Success(c, http.StatusCreated, "Book created", book, response.Links{
		"self":   {Href: fmt.Sprintf("/api/v1/books/%d", book.ID), Method: "PUT"},
		"delete": {Href: fmt.Sprintf("/api/v1/books/%d", book.ID), Method: "DELETE"},
		"books":  {Href: "/api/v1/books", Method: "GET"},
	}, nil)
}

func (h *Handler) UpdateBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}

	book, err := h.service.UpdateBook(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err, "failed to update book")
		return
	}
	h.invalidate()

	response.Success(c, http.StatusOK, "Book updated", book, response.Links{
		"self":  {Href: fmt.Sprintf("/api/v1/books/%d", book.ID), Method: "PUT"},
		"books": {Href: "/api/v1/books", Method: "GET"},
	}, nil)
}

func (h *Handler) DeleteBook(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(c.Request.Context(), id); err != nil {
		h.writeError(c, err, "failed to delete book")
		return
	}
	h.invalidate()

	response.Success(c, http.StatusOK, "Book deleted", nil, response.Links{
		"books": {Href: "/api/v1/books", Method: "GET"},
	}, nil)
}

/* ---------- LENDING ---------- */

func (h *Handler) ListBorrows(c *gin.Context) {
	userID := c.GetInt64("user_id")

	borrows, err := h.service.ListBorrowed(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list borrowed books")
		return
	}

	response.Success(c, http.StatusOK, "Borrowed books retrieved", borrows, response.Links{
		"self":  {Href: "/api/v1/borrows", Method: "GET"},
		"books": {Href: "/api/v1/books", Method: "GET"},
	}, gin.H{"total": len(borrows)})
}

func (h *Handler) Borrow(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := c.GetInt64("user_id")

	borrow, err := h.service.Borrow(c.Request.Context(), userID, id)
	if err != nil {
		h.writeError(c, err, "failed to borrow book")
		return
	}
	h.invalidate()

	response.Success(c, http.StatusCreated, "Book borrowed", borrow, response.Links{
		"return":  {Href: fmt.Sprintf("/api/v1/borrows/%d", borrow.ID), Method: "DELETE"},
		"borrows": {Href: "/api/v1/borrows", Method: "GET"},
		"books":   {Href: "/api/v1/books", Method: "GET"},
	}, nil)
}

func (h *Handler) Return(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := c.GetInt64("user_id")

	if err := h.service.Return(c.Request.Context(), userID, id); err != nil {
		h.writeError(c, err, "failed to return book")
		return
	}
	h.invalidate()

	response.Success(c, http.StatusOK, "Book returned", nil, response.Links{
		"borrows": {Href: "/api/v1/borrows", Method: "GET"},
		"books":   {Href: "/api/v1/books", Method: "GET"},
	}, nil)
}

/* ---------- STATISTICS ---------- */

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to compute statistics")
		return
	}

	response.Success(c, http.StatusOK, "Library statistics", stats, response.Links{
		"self":  {Href: "/api/v1/stats", Method: "GET"},
		"books": {Href: "/api/v1/books/all", Method: "GET"},
	}, nil)
}

/* ---------- helpers ---------- */

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	status, code := errorCode(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = fallback
	}
	response.Error(c, status, code, msg)
}

func errorCode(err error) (int, string) {
	switch err {
	case ErrBookNotFound:
		return http.StatusNotFound, "BOOK_NOT_FOUND"
	case ErrBorrowNotFound:
		return http.StatusNotFound, "BORROW_NOT_FOUND"
	case ErrBookKeyExists:
		return http.StatusConflict, "BOOK_KEY_EXISTS"
	case ErrNotAvailable:
		return http.StatusConflict, "BOOK_NOT_AVAILABLE"
	case ErrAlreadyBorrowed:
		return http.StatusConflict, "ALREADY_BORROWED"
	case ErrCopiesBorrowed:
		return http.StatusConflict, "COPIES_BORROWED"
	case ErrQuantityTooLow:
		return http.StatusUnprocessableEntity, "QUANTITY_TOO_LOW"
	case ErrInvalidQuantity:
		return http.StatusUnprocessableEntity, "INVALID_QUANTITY"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func (h *Handler) invalidate() {
	if h.cache != nil {
		h.cache.Invalidate()
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid id")
		return 0, false
	}
	return id, true
}
