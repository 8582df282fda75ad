package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"bookstore/internal/usecase"
)

type RelationHandler struct {
	relations usecase.RelationRepository
}

func NewRelationHandler(relations usecase.RelationRepository) *RelationHandler {
	return &RelationHandler{relations: relations}
}

// /relations/{book_id}
func parseRelationBookID(path string) (int64, bool) {
	const prefix = "/relations/"
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

// nullableInt tells an absent field apart from an explicit null: an
// explicit "rate": null removes the caller's rating, absence leaves it.
type nullableInt struct {
	Set   bool
	Value *int
}

func (n *nullableInt) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

type patchRelationRequest struct {
	Like        *bool       `json:"like"`
	InBookmarks *bool       `json:"in_bookmarks"`
	Rate        nullableInt `json:"rate"`
}

type relationResponse struct {
	Book        int64 `json:"book"`
	Like        bool  `json:"like"`
	InBookmarks bool  `json:"in_bookmarks"`
	Rate        *int  `json:"rate"`
}

// @Summary Upsert the caller's relation to a book
// @Description Get-or-create the (user, book) relation and apply the given fields
// @Tags relations
// @Accept json
// @Produce json
// @Security Bearer
// @Param book_id path int true "Book ID"
// @Param relation body patchRelationRequest true "Fields to change"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /relations/{book_id} [patch]
func (h *RelationHandler) Patch(w http.ResponseWriter, r *http.Request) {
	bookID, ok := parseRelationBookID(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
		return
	}

	userID := UserIDFrom(r)
	if userID == "" {
		JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	var req patchRelationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if req.Rate.Set && req.Rate.Value != nil {
		switch *req.Rate.Value {
		case 1, 2, 3, 4, 5:
		default:
			JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []ValidationError{
				{Field: "rate", Message: strconv.Quote(strconv.Itoa(*req.Rate.Value)) + " is not a valid choice"},
			})
			return
		}
	}

	changes := usecase.RelationChanges{
		Like:        req.Like,
		InBookmarks: req.InBookmarks,
		Rate:        req.Rate.Value,
		ClearRate:   req.Rate.Set && req.Rate.Value == nil,
	}
	relation, created, err := h.relations.Upsert(r.Context(), userID, bookID, changes)
	if err != nil {
		if errors.Is(err, usecase.ErrNotFound) {
			JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	// The aggregate rating is refreshed only when the relation row was
	// just created; a later change to an existing row's rate does not
	// move the book's rating. The recompute runs as a side effect, so
	// its failure never reaches the caller.
	if created {
		if err := h.relations.RecomputeRating(r.Context(), bookID); err != nil {
			log.Printf("recompute rating for book %d: %v", bookID, err)
		}
	}

	JSONSuccess(w, relationResponse{
		Book:        relation.BookID,
		Like:        relation.Like,
		InBookmarks: relation.InBookmarks,
		Rate:        relation.Rate,
	}, nil)
}
