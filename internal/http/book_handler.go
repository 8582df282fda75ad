package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/entity"
	"bookstore/internal/usecase"
)

type BookHandler struct {
	repo usecase.BookRepository
}

func NewBookHandler(repo usecase.BookRepository) *BookHandler {
	return &BookHandler{repo: repo}
}

// crude path param extraction with net/http's ServeMux
// /books/{id}
func parseBookID(path string) (int64, bool) {
	const prefix = "/books/"
	if !strings.HasPrefix(path, prefix) {
		return 0, false
	}
	raw := strings.TrimPrefix(path, prefix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}

// canMutateBook implements the owner-or-staff rule.
func canMutateBook(r *http.Request, book entity.Book) bool {
	if RoleFrom(r) == "ADMIN" {
		return true
	}
	userID := UserIDFrom(r)
	return book.OwnerID != nil && *book.OwnerID == userID
}

// @Summary List books
// @Description Get all books with like/bookmark counts, owner name and readers
// @Tags books
// @Produce json
// @Param price query number false "Exact price filter"
// @Param name query string false "Exact name filter"
// @Param search query string false "Substring search on name or author_name"
// @Param ordering query string false "price or author_name, prefix with - for descending"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /books [get]
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	params := usecase.ListParams{
		Price:  r.URL.Query().Get("price"),
		Name:   r.URL.Query().Get("name"),
		Search: r.URL.Query().Get("search"),
	}

	if params.Price != "" {
		if _, err := strconv.ParseFloat(params.Price, 64); err != nil {
			JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []ValidationError{
				{Field: "price", Message: "price must be a number"},
			})
			return
		}
	}

	switch ordering := r.URL.Query().Get("ordering"); ordering {
	case "":
	case "price", "author_name":
		params.OrderBy = ordering
	case "-price", "-author_name":
		params.OrderBy = strings.TrimPrefix(ordering, "-")
		params.Desc = true
	default:
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []ValidationError{
			{Field: "ordering", Message: strconv.Quote(ordering) + " is not a valid choice"},
		})
		return
	}

	books, err := h.repo.List(r.Context(), params)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, books, nil)
}

// @Summary Get book by ID
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /books/{id} [get]
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	book, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, book, nil)
}

type createBookRequest struct {
	Name       string  `json:"name" validate:"required,max=200"`
	Price      float64 `json:"price" validate:"required,gt=0,lt=100000"`
	AuthorName string  `json:"author_name" validate:"required,max=255"`
}

// @Summary Create book
// @Description Create a book; the authenticated caller becomes the owner
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param book body createBookRequest true "Book data"
// @Success 201 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /books [post]
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFrom(r)
	if userID == "" {
		JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	book := entity.Book{
		Name:       req.Name,
		Price:      formatPrice(req.Price),
		AuthorName: req.AuthorName,
		OwnerID:    &userID,
	}
	if err := h.repo.Create(r.Context(), &book); err != nil {
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccessCreated(w, book)
}

type updateBookRequest struct {
	Name       *string  `json:"name" validate:"omitempty,max=200"`
	Price      *float64 `json:"price" validate:"omitempty,gt=0,lt=100000"`
	AuthorName *string  `json:"author_name" validate:"omitempty,max=255"`
}

// @Summary Update book
// @Description Full (PUT) or partial (PATCH) update; owner or staff only
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /books/{id} [put]
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if UserIDFrom(r) == "" {
		JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	book, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !canMutateBook(r, book) {
		JSONError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return
	}

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if validationErrors := ValidateStruct(req); len(validationErrors) > 0 {
		JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", validationErrors)
		return
	}

	if r.Method == http.MethodPut {
		// PUT replaces the resource, so every field is required
		var missing []ValidationError
		if req.Name == nil {
			missing = append(missing, ValidationError{Field: "name", Message: "name is required"})
		}
		if req.Price == nil {
			missing = append(missing, ValidationError{Field: "price", Message: "price is required"})
		}
		if req.AuthorName == nil {
			missing = append(missing, ValidationError{Field: "authorName", Message: "authorName is required"})
		}
		if len(missing) > 0 {
			JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", missing)
			return
		}
	}

	if req.Name != nil {
		book.Name = *req.Name
	}
	if req.Price != nil {
		book.Price = formatPrice(*req.Price)
	}
	if req.AuthorName != nil {
		book.AuthorName = *req.AuthorName
	}

	if err := h.repo.Update(r.Context(), &book); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccess(w, book, nil)
}

// @Summary Delete book
// @Tags books
// @Security Bearer
// @Param id path int true "Book ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /books/{id} [delete]
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseBookID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if UserIDFrom(r) == "" {
		JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	book, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if !canMutateBook(r, book) {
		JSONError(w, http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	JSONSuccessNoContent(w)
}
