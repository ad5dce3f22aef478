package service

import (
	"context"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type CommentService interface {
	List(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) (dto.Paginated[dto.CommentResponse], error)
	Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error)
	Create(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*dto.CommentResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error
}

type commentService struct {
	comments repository.CommentRepository
	reviews  repository.ReviewRepository
	perms    Permissions
}

func NewCommentService(comments repository.CommentRepository, reviews repository.ReviewRepository, perms Permissions) CommentService {
	return &commentService{comments: comments, reviews: reviews, perms: perms}
}

// requireReview checks the review exists under the title.
func (s *commentService) requireReview(ctx context.Context, titleID, reviewID int64) error {
	_, err := s.reviews.GetByID(ctx, titleID, reviewID)
	return notFound(err, ErrReviewNotFound)
}

func (s *commentService) List(ctx context.Context, titleID, reviewID int64, q dto.PageQuery) (dto.Paginated[dto.CommentResponse], error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return dto.Paginated[dto.CommentResponse]{}, err
	}

	page := q.Normalize()
	list, total, err := s.comments.ListByReview(ctx, reviewID, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.CommentResponse]{}, err
	}
	resp := make([]dto.CommentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.CommentFromModel(&list[i]))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *commentService) get(ctx context.Context, titleID, reviewID, commentID int64) (*models.Comment, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, reviewID, commentID)
	if err != nil {
		return nil, notFound(err, ErrCommentNotFound)
	}
	return comment, nil
}

func (s *commentService) Get(ctx context.Context, titleID, reviewID, commentID int64) (*dto.CommentResponse, error) {
	comment, err := s.get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Create(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.CreateCommentRequest) (*dto.CommentResponse, error) {
	if err := s.requireReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := models.ValidateNotBlank(req.Text); err != nil {
		return nil, newValidationError("text", err.Error())
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		TitleID:  &titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment.Author = *actor

	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Update(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64, req dto.UpdateCommentRequest) (*dto.CommentResponse, error) {
	comment, err := s.get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := requirePermission(s.perms, actor, authz.ResourceComments, authz.ActionUpdate, comment.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		if err := models.ValidateNotBlank(*req.Text); err != nil {
			return nil, newValidationError("text", err.Error())
		}
		comment.Text = *req.Text
		if err := s.comments.Update(ctx, comment); err != nil {
			return nil, err
		}
	}

	resp := dto.CommentFromModel(comment)
	return &resp, nil
}

func (s *commentService) Delete(ctx context.Context, actor *models.User, titleID, reviewID, commentID int64) error {
	comment, err := s.get(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := requirePermission(s.perms, actor, authz.ResourceComments, authz.ActionDelete, comment.AuthorID); err != nil {
		return err
	}
	return notFound(s.comments.Delete(ctx, comment.ID), ErrCommentNotFound)
}
