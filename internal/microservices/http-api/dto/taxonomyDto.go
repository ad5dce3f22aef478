package dto

import "yamdb/internal/microservices/http-api/models"

// CreateTaxonomyRequest for POST /v1/categories/ and /v1/genres/
type CreateTaxonomyRequest struct {
	Name string `json:"name" binding:"required,max=256,notblank"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

// TaxonomyListQuery filters categories and genres by exact name.
type TaxonomyListQuery struct {
	PageQuery
	Search string `form:"search"`
}

// TaxonomyResponse renders a category or a genre.
type TaxonomyResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func CategoryFromModel(c models.Category) TaxonomyResponse {
	return TaxonomyResponse{Name: c.Name, Slug: c.Slug}
}

func GenreFromModel(g models.Genre) TaxonomyResponse {
	return TaxonomyResponse{Name: g.Name, Slug: g.Slug}
}
