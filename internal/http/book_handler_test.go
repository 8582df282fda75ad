package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookstore/internal/entity"
	"bookstore/internal/httpx"
	"bookstore/internal/store/mocks"
	"bookstore/internal/usecase"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUserID  = "test-user-id"
	testOtherID = "other-user-id"
)

func testAnnotatedBook() entity.AnnotatedBook {
	return entity.AnnotatedBook{
		ID:                 1,
		Name:               "Test book 1",
		Price:              "25.00",
		AuthorName:         "Author 1",
		AnnotatedLikes:     2,
		AnnotatedBookmarks: 1,
		OwnerName:          "testuser",
		Readers:            []entity.Reader{{FirstName: "Test", LastName: "Reader"}},
	}
}

func ownedBook(ownerID string) entity.Book {
	return entity.Book{
		ID:         1,
		Name:       "Test book 1",
		Price:      "25.00",
		AuthorName: "Author 1",
		OwnerID:    &ownerID,
	}
}

func asUser(r *http.Request, userID, role string) *http.Request {
	return r.WithContext(httpx.ContextWithUser(r.Context(), userID, role))
}

func TestBookHandler_List(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		setupMock      func(m *mocks.MockBookRepository)
		expectedStatus int
	}{
		{
			name:        "success - empty list",
			queryParams: "",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "success - with books",
			queryParams: "",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return([]entity.AnnotatedBook{testAnnotatedBook()}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "price filter is forwarded",
			queryParams: "?price=55",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{Price: "55"}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "name filter is forwarded",
			queryParams: "?name=Test+book+1",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{Name: "Test book 1"}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "search is forwarded",
			queryParams: "?search=Author+1",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{Search: "Author 1"}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "ordering ascending",
			queryParams: "?ordering=author_name",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{OrderBy: "author_name"}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "ordering descending",
			queryParams: "?ordering=-price",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), usecase.ListParams{OrderBy: "price", Desc: true}).
					Return([]entity.AnnotatedBook{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid ordering field rejected",
			queryParams:    "?ordering=rating",
			setupMock:      func(m *mocks.MockBookRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non-numeric price rejected",
			queryParams:    "?price=cheap",
			setupMock:      func(m *mocks.MockBookRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "server error",
			queryParams: "",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					List(gomock.Any(), gomock.Any()).
					Return(nil, context.DeadlineExceeded)
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := mocks.NewMockBookRepository(ctrl)
			tt.setupMock(mockRepo)
			handler := NewBookHandler(mockRepo)

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/books"+tt.queryParams, nil)

			handler.List(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBookHandler_List_Projection(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := mocks.NewMockBookRepository(ctrl)
	mockRepo.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return([]entity.AnnotatedBook{testAnnotatedBook()}, nil)
	handler := NewBookHandler(mockRepo)

	w := httptest.NewRecorder()
	handler.List(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	got := resp.Data[0]
	assert.Equal(t, "Test book 1", got["name"])
	assert.Equal(t, "25.00", got["price"])
	assert.Equal(t, float64(2), got["annotated_likes"])
	assert.Equal(t, float64(1), got["annotated_bookmarks"])
	assert.Equal(t, "testuser", got["owner_name"])
	readers, ok := got["readers"].([]interface{})
	require.True(t, ok)
	require.Len(t, readers, 1)
}

func TestBookHandler_Get(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		setupMock      func(m *mocks.MockBookRepository)
		expectedStatus int
	}{
		{
			name: "success - book found",
			path: "/books/1",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					GetByID(gomock.Any(), int64(1)).
					Return(testAnnotatedBook(), nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - missing id",
			path:           "/books/",
			setupMock:      func(m *mocks.MockBookRepository) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "not found - non-numeric id",
			path:           "/books/abc",
			setupMock:      func(m *mocks.MockBookRepository) {},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "not found - book not in DB",
			path: "/books/999",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().
					GetByID(gomock.Any(), int64(999)).
					Return(entity.AnnotatedBook{}, usecase.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := mocks.NewMockBookRepository(ctrl)
			tt.setupMock(mockRepo)
			handler := NewBookHandler(mockRepo)

			w := httptest.NewRecorder()
			handler.Get(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBookHandler_Create(t *testing.T) {
	validBody := map[string]interface{}{
		"name":        "Postgresql",
		"price":       500.50,
		"author_name": "Patric Python",
	}

	t.Run("anonymous caller rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := NewBookHandler(mocks.NewMockBookRepository(ctrl))

		body, _ := json.Marshal(validBody)
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/books", bytes.NewReader(body))

		handler.Create(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		handler := NewBookHandler(mocks.NewMockBookRepository(ctrl))

		body, _ := json.Marshal(map[string]interface{}{"name": "Postgresql"})
		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/books", bytes.NewReader(body)), testUserID, "USER")

		handler.Create(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("caller becomes owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		mockRepo := mocks.NewMockBookRepository(ctrl)
		mockRepo.EXPECT().
			Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, b *entity.Book) error {
				require.NotNil(t, b.OwnerID)
				assert.Equal(t, testUserID, *b.OwnerID)
				assert.Equal(t, "500.50", b.Price)
				b.ID = 4
				return nil
			})
		handler := NewBookHandler(mockRepo)

		body, _ := json.Marshal(validBody)
		w := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/books", bytes.NewReader(body)), testUserID, "USER")

		handler.Create(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestBookHandler_Update(t *testing.T) {
	updateBody := map[string]interface{}{
		"name":        "Test book 1",
		"price":       225,
		"author_name": "Author 1",
	}

	tests := []struct {
		name           string
		callerID       string
		callerRole     string
		body           map[string]interface{}
		setupMock      func(m *mocks.MockBookRepository)
		expectedStatus int
	}{
		{
			name:       "owner can update",
			callerID:   testUserID,
			callerRole: "USER",
			body:       updateBody,
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
				m.EXPECT().
					Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, b *entity.Book) error {
						assert.Equal(t, "225.00", b.Price)
						return nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:       "non-owner forbidden",
			callerID:   testOtherID,
			callerRole: "USER",
			body:       updateBody,
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:       "staff can update",
			callerID:   testOtherID,
			callerRole: "ADMIN",
			body:       updateBody,
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
				m.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:       "put requires all fields",
			callerID:   testUserID,
			callerRole: "USER",
			body:       map[string]interface{}{"price": 225},
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "book not found",
			callerID:   testUserID,
			callerRole: "USER",
			body:       updateBody,
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(entity.Book{}, usecase.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := mocks.NewMockBookRepository(ctrl)
			tt.setupMock(mockRepo)
			handler := NewBookHandler(mockRepo)

			body, _ := json.Marshal(tt.body)
			w := httptest.NewRecorder()
			r := asUser(httptest.NewRequest(http.MethodPut, "/books/1", bytes.NewReader(body)), tt.callerID, tt.callerRole)

			handler.Update(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestBookHandler_Update_PatchPartial(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := mocks.NewMockBookRepository(ctrl)
	mockRepo.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
	mockRepo.EXPECT().
		Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *entity.Book) error {
			assert.Equal(t, "225.00", b.Price)
			assert.Equal(t, "Test book 1", b.Name) // untouched
			return nil
		})
	handler := NewBookHandler(mockRepo)

	body, _ := json.Marshal(map[string]interface{}{"price": 225})
	w := httptest.NewRecorder()
	r := asUser(httptest.NewRequest(http.MethodPatch, "/books/1", bytes.NewReader(body)), testUserID, "USER")

	handler.Update(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBookHandler_Delete(t *testing.T) {
	tests := []struct {
		name           string
		callerID       string
		callerRole     string
		setupMock      func(m *mocks.MockBookRepository)
		expectedStatus int
	}{
		{
			name:       "owner can delete",
			callerID:   testUserID,
			callerRole: "USER",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
				m.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:       "staff can delete",
			callerID:   testOtherID,
			callerRole: "ADMIN",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
				m.EXPECT().Delete(gomock.Any(), int64(1)).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:       "non-owner forbidden, book untouched",
			callerID:   testOtherID,
			callerRole: "USER",
			setupMock: func(m *mocks.MockBookRepository) {
				m.EXPECT().FindByID(gomock.Any(), int64(1)).Return(ownedBook(testUserID), nil)
			},
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()
			mockRepo := mocks.NewMockBookRepository(ctrl)
			tt.setupMock(mockRepo)
			handler := NewBookHandler(mockRepo)

			w := httptest.NewRecorder()
			r := asUser(httptest.NewRequest(http.MethodDelete, "/books/1", nil), tt.callerID, tt.callerRole)

			handler.Delete(w, r)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
