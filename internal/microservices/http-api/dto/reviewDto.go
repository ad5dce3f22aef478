package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
)

// CreateReviewRequest for POST /v1/titles/{title_id}/reviews/
type CreateReviewRequest struct {
	Text  string `json:"text" binding:"required,notblank"`
	Score int    `json:"score" binding:"required,min=1,max=10"`
}

// UpdateReviewRequest for PATCH .../reviews/{review_id}/
type UpdateReviewRequest struct {
	Text  *string `json:"text" binding:"omitempty,notblank"`
	Score *int    `json:"score" binding:"omitempty,min=1,max=10"`
}

type ReviewResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func ReviewFromModel(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Text:    r.Text,
		Author:  r.Author.Username,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}
