package repository

import (
	"context"
	"fmt"
	"strings"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter narrows a title listing. Zero values are ignored.
type TitleFilter struct {
	Genre    string // genre slug
	Category string // category slug
	Name     string // case-insensitive substring
	Year     int
}

// TitleRepository defines the data operations on titles.
type TitleRepository interface {
	List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error)
	GetByID(ctx context.Context, id int64) (*models.Title, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, title *models.Title) error
	Update(ctx context.Context, title *models.Title, genres []models.Genre) error
	Delete(ctx context.Context, id int64) error
}

type titleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) TitleRepository {
	return &titleRepository{db: db}
}

func preloadTitle(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Genres", func(db *gorm.DB) *gorm.DB {
		return db.Order("genres.name asc")
	})
}

func (f TitleFilter) apply(db *gorm.DB) *gorm.DB {
	if f.Genre != "" {
		db = db.Where("titles.id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Table("title_genres").
				Select("title_genres.title_id").
				Joins("JOIN genres ON genres.id = title_genres.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	if f.Category != "" {
		db = db.Where("titles.category_id IN (?)",
			db.Session(&gorm.Session{NewDB: true}).Model(&models.Category{}).
				Select("id").Where("slug = ?", f.Category))
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		db = db.Where("LOWER(titles.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.Year != 0 {
		db = db.Where("titles.year = ?", f.Year)
	}
	return db
}

func (r *titleRepository) List(ctx context.Context, filter TitleFilter, page Page) ([]models.Title, int64, error) {
	var titles []models.Title
	var total int64

	q := filter.apply(r.db.WithContext(ctx).Model(&models.Title{}))
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}
	if err := q.Scopes(preloadTitle, paginate(page)).
		Order("titles.year desc, titles.id asc").
		Find(&titles).Error; err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	return titles, total, nil
}

func (r *titleRepository) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var title models.Title
	if err := r.db.WithContext(ctx).Scopes(preloadTitle).First(&title, id).Error; err != nil {
		return nil, err
	}
	return &title, nil
}

func (r *titleRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts the title and links it to the already persisted genres in
// title.Genres.
func (r *titleRepository) Create(ctx context.Context, title *models.Title) error {
	if err := r.db.WithContext(ctx).Omit("Category", "Genres.*").Create(title).Error; err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	return nil
}

// Update saves the scalar columns of title. When genres is non-nil the genre
// links are replaced with it.
func (r *titleRepository) Update(ctx context.Context, title *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(title).Error; err != nil {
			return fmt.Errorf("update title: %w", err)
		}
		if genres == nil {
			return nil
		}
		assoc := tx.Model(title).Association("Genres")
		var err error
		if len(genres) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(genres)
		}
		if err != nil {
			return fmt.Errorf("replace title genres: %w", err)
		}
		title.Genres = genres
		return nil
	})
}

// Delete removes the title with its reviews, their comments and its genre links.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reviewIDs := tx.Session(&gorm.Session{NewDB: true}).Model(&models.Review{}).Select("id").Where("title_id = ?", id)
		if err := tx.Where("review_id IN (?) OR title_id = ?", reviewIDs, id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete title comments: %w", err)
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete title reviews: %w", err)
		}
		if err := tx.Exec("DELETE FROM title_genres WHERE title_id = ?", id).Error; err != nil {
			return fmt.Errorf("unlink title genres: %w", err)
		}
		result := tx.Delete(&models.Title{}, id)
		if result.Error != nil {
			return fmt.Errorf("delete title: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
