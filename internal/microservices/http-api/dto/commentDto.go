package dto

import (
	"time"

	"yamdb/internal/microservices/http-api/models"
)

// CreateCommentRequest for POST .../reviews/{review_id}/comments/
type CreateCommentRequest struct {
	Text string `json:"text" binding:"required,notblank"`
}

// UpdateCommentRequest for PATCH .../comments/{comment_id}/
type UpdateCommentRequest struct {
	Text *string `json:"text" binding:"omitempty,notblank"`
}

type CommentResponse struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pub_date"`
}

func CommentFromModel(c *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      c.ID,
		Text:    c.Text,
		Author:  c.Author.Username,
		PubDate: c.PubDate,
	}
}
