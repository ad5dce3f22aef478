package handler_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/service"
)

func TestCategories_List(t *testing.T) {
	categories := new(MockTaxonomyService)
	r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Categories: categories}, nil)

	q := dto.TaxonomyListQuery{PageQuery: dto.PageQuery{Page: 2, PageSize: 1}, Search: "Books"}
	page := dto.NewPaginated([]dto.TaxonomyResponse{{Name: "Books", Slug: "books"}}, 2, q.PageQuery)
	categories.On("List", mock.Anything, q).Return(page, nil).Once()

	w := doRequest(r, http.MethodGet, "/v1/categories/?page=2&page_size=1&search=Books", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.Paginated[dto.TaxonomyResponse]](t, w)
	assert.Equal(t, page, got)
	categories.AssertExpectations(t)
}

func TestCategories_ListRejectsOversizedPage(t *testing.T) {
	categories := new(MockTaxonomyService)
	r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Categories: categories}, nil)

	w := doRequest(r, http.MethodGet, "/v1/categories/?page_size=1000", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page_size", decode[dto.ErrorResponse](t, w).Field)
}

func TestCategories_ListRejectsHugePageNumber(t *testing.T) {
	categories := new(MockTaxonomyService)
	r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Categories: categories}, nil)

	w := doRequest(r, http.MethodGet, "/v1/categories/?page=4611686018427387904", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "page", decode[dto.ErrorResponse](t, w).Field)
	categories.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestCategories_CreatePermissions(t *testing.T) {
	body := dto.CreateTaxonomyRequest{Name: "Books", Slug: "books"}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"Anonymous", "", http.StatusUnauthorized},
		{"User", "alice-token", http.StatusForbidden},
		{"Moderator", "mod-token", http.StatusForbidden},
		{"Admin", "root-token", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := new(MockTaxonomyService)
			categories.On("Create", mock.Anything, body).Return(&dto.TaxonomyResponse{Name: "Books", Slug: "books"}, nil).Maybe()
			r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Categories: categories}, nil)

			w := doRequest(r, http.MethodPost, "/v1/categories/", tt.token, body)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus != http.StatusCreated {
				categories.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestGenres_CreateInvalidSlug(t *testing.T) {
	genres := new(MockTaxonomyService)
	r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Genres: genres}, nil)

	w := doRequest(r, http.MethodPost, "/v1/genres/", "root-token", dto.CreateTaxonomyRequest{Name: "Sci-Fi", Slug: "sci fi!"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slug", decode[dto.ErrorResponse](t, w).Field)
}

func TestGenres_Delete(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Deleted", nil, http.StatusNoContent},
		{"Missing", service.ErrGenreNotFound, http.StatusNotFound},
		{"StoreFailure", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			genres := new(MockTaxonomyService)
			genres.On("Delete", mock.Anything, "drama").Return(tt.err).Once()
			r := setupRouter(t, handler.Services{Auth: withTokens(new(MockAuthService)), Genres: genres}, nil)

			w := doRequest(r, http.MethodDelete, "/v1/genres/drama/", "root-token", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", decode[dto.ErrorResponse](t, w).Error)
			}
			genres.AssertExpectations(t)
		})
	}
}
