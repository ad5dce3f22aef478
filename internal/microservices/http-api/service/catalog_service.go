package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// TaxonomyService manages either categories or genres; both expose the
// same list/create/delete surface keyed by slug.
type TaxonomyService interface {
	List(ctx context.Context, q dto.TaxonomyListQuery) (dto.Paginated[dto.TaxonomyResponse], error)
	Create(ctx context.Context, req dto.CreateTaxonomyRequest) (*dto.TaxonomyResponse, error)
	Delete(ctx context.Context, slug string) error
}

func validateTaxonomy(req dto.CreateTaxonomyRequest) error {
	if err := models.ValidateNotBlank(req.Name); err != nil {
		return newValidationError("name", err.Error())
	}
	if err := models.ValidateSlug(req.Slug); err != nil {
		return newValidationError("slug", err.Error())
	}
	return nil
}

type categoryService struct {
	repo repository.CategoryRepository
}

func NewCategoryService(repo repository.CategoryRepository) TaxonomyService {
	return &categoryService{repo: repo}
}

func (s *categoryService) List(ctx context.Context, q dto.TaxonomyListQuery) (dto.Paginated[dto.TaxonomyResponse], error) {
	page := q.PageQuery.Normalize()
	list, total, err := s.repo.List(ctx, q.Search, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.TaxonomyResponse]{}, err
	}
	resp := make([]dto.TaxonomyResponse, 0, len(list))
	for _, c := range list {
		resp = append(resp, dto.CategoryFromModel(c))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *categoryService) Create(ctx context.Context, req dto.CreateTaxonomyRequest) (*dto.TaxonomyResponse, error) {
	if err := validateTaxonomy(req); err != nil {
		return nil, err
	}
	category := &models.Category{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, category); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newValidationError("slug", "category with this slug already exists")
		}
		return nil, err
	}
	resp := dto.CategoryFromModel(*category)
	return &resp, nil
}

func (s *categoryService) Delete(ctx context.Context, slug string) error {
	return notFound(s.repo.DeleteBySlug(ctx, slug), ErrCategoryNotFound)
}

type genreService struct {
	repo repository.GenreRepository
}

func NewGenreService(repo repository.GenreRepository) TaxonomyService {
	return &genreService{repo: repo}
}

func (s *genreService) List(ctx context.Context, q dto.TaxonomyListQuery) (dto.Paginated[dto.TaxonomyResponse], error) {
	page := q.PageQuery.Normalize()
	list, total, err := s.repo.List(ctx, q.Search, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.TaxonomyResponse]{}, err
	}
	resp := make([]dto.TaxonomyResponse, 0, len(list))
	for _, g := range list {
		resp = append(resp, dto.GenreFromModel(g))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *genreService) Create(ctx context.Context, req dto.CreateTaxonomyRequest) (*dto.TaxonomyResponse, error) {
	if err := validateTaxonomy(req); err != nil {
		return nil, err
	}
	genre := &models.Genre{Name: req.Name, Slug: req.Slug}
	if err := s.repo.Create(ctx, genre); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, newValidationError("slug", "genre with this slug already exists")
		}
		return nil, err
	}
	resp := dto.GenreFromModel(*genre)
	return &resp, nil
}

func (s *genreService) Delete(ctx context.Context, slug string) error {
	return notFound(s.repo.DeleteBySlug(ctx, slug), ErrGenreNotFound)
}

type TitleService interface {
	List(ctx context.Context, q dto.TitleListQuery) (dto.Paginated[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error)
	Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error)
	Delete(ctx context.Context, id int64) error
}

type titleService struct {
	titles     repository.TitleRepository
	categories repository.CategoryRepository
	genres     repository.GenreRepository
	reviews    repository.ReviewRepository
	now        func() time.Time
}

func NewTitleService(
	titles repository.TitleRepository,
	categories repository.CategoryRepository,
	genres repository.GenreRepository,
	reviews repository.ReviewRepository,
) TitleService {
	return &titleService{
		titles:     titles,
		categories: categories,
		genres:     genres,
		reviews:    reviews,
		now:        time.Now,
	}
}

func (s *titleService) List(ctx context.Context, q dto.TitleListQuery) (dto.Paginated[dto.TitleResponse], error) {
	page := q.PageQuery.Normalize()
	filter := repository.TitleFilter{Genre: q.Genre, Category: q.Category, Name: q.Name, Year: q.Year}

	list, total, err := s.titles.List(ctx, filter, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.TitleResponse]{}, err
	}

	ids := make([]int64, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.ID)
	}
	ratings, err := s.reviews.AverageScores(ctx, ids)
	if err != nil {
		return dto.Paginated[dto.TitleResponse]{}, err
	}

	resp := make([]dto.TitleResponse, 0, len(list))
	for i := range list {
		var rating *float64
		if r, ok := ratings[list[i].ID]; ok {
			rating = &r
		}
		resp = append(resp, dto.TitleFromModel(&list[i], rating))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTitleNotFound)
	}
	return s.render(ctx, title)
}

func (s *titleService) render(ctx context.Context, title *models.Title) (*dto.TitleResponse, error) {
	rating, err := s.reviews.AverageScore(ctx, title.ID)
	if err != nil {
		return nil, err
	}
	resp := dto.TitleFromModel(title, rating)
	return &resp, nil
}

// resolveGenres loads every slug or reports the first unknown one.
func (s *titleService) resolveGenres(ctx context.Context, slugs []string) ([]models.Genre, error) {
	unique := make([]string, 0, len(slugs))
	seen := make(map[string]bool, len(slugs))
	for _, slug := range slugs {
		if !seen[slug] {
			seen[slug] = true
			unique = append(unique, slug)
		}
	}

	genres, err := s.genres.GetBySlugs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(genres) == len(unique) {
		return genres, nil
	}

	found := make(map[string]bool, len(genres))
	for _, g := range genres {
		found[g.Slug] = true
	}
	for _, slug := range unique {
		if !found[slug] {
			return nil, newValidationError("genre", fmt.Sprintf("genre %q does not exist", slug))
		}
	}
	return genres, nil
}

func (s *titleService) resolveCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, newValidationError("category", fmt.Sprintf("category %q does not exist", slug)))
	}
	return category, nil
}

func (s *titleService) validate(name string, year int) error {
	if err := models.ValidateNotBlank(name); err != nil {
		return newValidationError("name", err.Error())
	}
	if err := models.ValidateYear(year, s.now()); err != nil {
		return newValidationError("year", err.Error())
	}
	return nil
}

func (s *titleService) Create(ctx context.Context, req dto.CreateTitleRequest) (*dto.TitleResponse, error) {
	if err := s.validate(req.Name, req.Year); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        strings.TrimSpace(req.Name),
		Year:        req.Year,
		Description: req.Description,
	}

	if len(req.Genre) > 0 {
		genres, err := s.resolveGenres(ctx, req.Genre)
		if err != nil {
			return nil, err
		}
		title.Genres = genres
	}
	if req.Category != "" {
		category, err := s.resolveCategory(ctx, req.Category)
		if err != nil {
			return nil, err
		}
		title.CategoryID = &category.ID
		title.Category = category
	}

	if err := s.titles.Create(ctx, title); err != nil {
		return nil, err
	}
	// a new title has no reviews
	resp := dto.TitleFromModel(title, nil)
	return &resp, nil
}

func (s *titleService) Update(ctx context.Context, id int64, req dto.UpdateTitleRequest) (*dto.TitleResponse, error) {
	title, err := s.titles.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTitleNotFound)
	}

	if req.Name != nil {
		title.Name = strings.TrimSpace(*req.Name)
	}
	if req.Year != nil {
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	if err := s.validate(title.Name, title.Year); err != nil {
		return nil, err
	}

	if req.Category != nil {
		if *req.Category == "" {
			title.CategoryID = nil
			title.Category = nil
		} else {
			category, err := s.resolveCategory(ctx, *req.Category)
			if err != nil {
				return nil, err
			}
			title.CategoryID = &category.ID
			title.Category = category
		}
	}

	var genres []models.Genre
	if req.Genre != nil {
		genres, err = s.resolveGenres(ctx, *req.Genre)
		if err != nil {
			return nil, err
		}
		if genres == nil {
			genres = []models.Genre{}
		}
	}

	if err := s.titles.Update(ctx, title, genres); err != nil {
		return nil, err
	}
	return s.render(ctx, title)
}

func (s *titleService) Delete(ctx context.Context, id int64) error {
	return notFound(s.titles.Delete(ctx, id), ErrTitleNotFound)
}
