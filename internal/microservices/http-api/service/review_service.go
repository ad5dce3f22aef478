package service

import (
	"context"
	"strconv"

	"yamdb/database"
	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// Permissions decides whether a role may change a specific object.
type Permissions interface {
	Require(role, resource, action string, isOwner bool) error
}

// requirePermission returns ErrForbidden unless actor may apply action to an
// object authored by authorID.
func requirePermission(perms Permissions, actor *models.User, resource, action, authorID string) error {
	return perms.Require(string(actor.EffectiveRole()), resource, action, actor.ID == authorID)
}

type ReviewService interface {
	List(ctx context.Context, titleID int64, q dto.PageQuery) (dto.Paginated[dto.ReviewResponse], error)
	Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error)
	Create(ctx context.Context, actor *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error)
	Update(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error)
	Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	titles  repository.TitleRepository
	perms   Permissions
}

func NewReviewService(reviews repository.ReviewRepository, titles repository.TitleRepository, perms Permissions) ReviewService {
	return &reviewService{reviews: reviews, titles: titles, perms: perms}
}

func (s *reviewService) requireTitle(ctx context.Context, titleID int64) error {
	ok, err := s.titles.Exists(ctx, titleID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTitleNotFound
	}
	return nil
}

func (s *reviewService) List(ctx context.Context, titleID int64, q dto.PageQuery) (dto.Paginated[dto.ReviewResponse], error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return dto.Paginated[dto.ReviewResponse]{}, err
	}

	page := q.Normalize()
	list, total, err := s.reviews.ListByTitle(ctx, titleID, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.ReviewResponse]{}, err
	}
	resp := make([]dto.ReviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.ReviewFromModel(&list[i]))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *reviewService) get(ctx context.Context, titleID, reviewID int64) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviews.GetByID(ctx, titleID, reviewID)
	if err != nil {
		return nil, notFound(err, ErrReviewNotFound)
	}
	return review, nil
}

func (s *reviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	review, err := s.get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

func validateReview(text string, score int) error {
	if err := models.ValidateNotBlank(text); err != nil {
		return newValidationError("text", err.Error())
	}
	if err := models.ValidateScore(score); err != nil {
		return newValidationError("score", err.Error())
	}
	return nil
}

func (s *reviewService) Create(ctx context.Context, actor *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	if err := validateReview(req.Text, req.Score); err != nil {
		return nil, err
	}
	// mirrors the chk_review_author_not_title constraint
	if actor.ID == strconv.FormatInt(titleID, 10) {
		return nil, ErrSelfReview
	}

	exists, err := s.reviews.ExistsByAuthorAndTitle(ctx, actor.ID, titleID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrReviewExists
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     req.Text,
		Score:    req.Score,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrReviewExists
		}
		return nil, err
	}
	review.Author = *actor

	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

func (s *reviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	review, err := s.get(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := requirePermission(s.perms, actor, authz.ResourceReviews, authz.ActionUpdate, review.AuthorID); err != nil {
		return nil, err
	}

	if req.Text != nil {
		review.Text = *req.Text
	}
	if req.Score != nil {
		review.Score = *req.Score
	}
	if err := validateReview(review.Text, review.Score); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, err
	}
	resp := dto.ReviewFromModel(review)
	return &resp, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	review, err := s.get(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := requirePermission(s.perms, actor, authz.ResourceReviews, authz.ActionDelete, review.AuthorID); err != nil {
		return err
	}
	return notFound(s.reviews.Delete(ctx, review.ID), ErrReviewNotFound)
}
