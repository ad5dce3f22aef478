package dto

import "yamdb/internal/microservices/http-api/models"

// CreateTitleRequest for POST /v1/titles/. Genre and Category carry slugs.
type CreateTitleRequest struct {
	Name        string   `json:"name" binding:"required,max=256,notblank"`
	Year        int      `json:"year" binding:"required,pastyear"`
	Description string   `json:"description" binding:"max=256"`
	Genre       []string `json:"genre" binding:"omitempty,dive,slug"`
	Category    string   `json:"category" binding:"omitempty,slug"`
}

// UpdateTitleRequest for PATCH /v1/titles/{title_id}/. An empty Category
// detaches the title from its category.
type UpdateTitleRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=256,notblank"`
	Year        *int      `json:"year" binding:"omitempty,pastyear"`
	Description *string   `json:"description" binding:"omitempty,max=256"`
	Genre       *[]string `json:"genre" binding:"omitempty,dive,slug"`
	Category    *string   `json:"category"`
}

// TitleListQuery for GET /v1/titles/
type TitleListQuery struct {
	PageQuery
	Genre    string `form:"genre"`
	Category string `form:"category"`
	Name     string `form:"name"`
	Year     int    `form:"year"`
}

type TitleResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Year        int                `json:"year"`
	Rating      *float64           `json:"rating"`
	Description string             `json:"description"`
	Genre       []TaxonomyResponse `json:"genre"`
	Category    *TaxonomyResponse  `json:"category"`
}

// TitleFromModel renders t with the given rating; nil means no reviews yet.
func TitleFromModel(t *models.Title, rating *float64) TitleResponse {
	genres := make([]TaxonomyResponse, 0, len(t.Genres))
	for _, g := range t.Genres {
		genres = append(genres, GenreFromModel(g))
	}

	var category *TaxonomyResponse
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		category = &c
	}

	return TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       genres,
		Category:    category,
	}
}
