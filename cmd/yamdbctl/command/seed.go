package command

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
)

// SeedFile is the import format of the seed command. Titles refer to
// categories and genres by slug.
type SeedFile struct {
	Categories []dto.CreateTaxonomyRequest `json:"categories"`
	Genres     []dto.CreateTaxonomyRequest `json:"genres"`
	Titles     []dto.CreateTitleRequest    `json:"titles"`
}

// SeedResult counts the imported rows.
type SeedResult struct {
	Categories int
	Genres     int
	Titles     int
}

// Seed imports a seed file in a single transaction; any invalid row rolls
// back the whole import.
func Seed(ctx context.Context, conn *gorm.DB, r io.Reader) (SeedResult, error) {
	var file SeedFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return SeedResult{}, fmt.Errorf("failed to parse seed file: %w", err)
	}

	var res SeedResult
	err := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryRepo := repository.NewCategoryRepository(tx)
		genreRepo := repository.NewGenreRepository(tx)
		categories := service.NewCategoryService(categoryRepo)
		genres := service.NewGenreService(genreRepo)
		titles := service.NewTitleService(repository.NewTitleRepository(tx), categoryRepo, genreRepo, repository.NewReviewRepository(tx))

		for i, c := range file.Categories {
			if _, err := categories.Create(ctx, c); err != nil {
				return fmt.Errorf("category #%d (%s): %w", i+1, c.Slug, err)
			}
			res.Categories++
		}
		for i, g := range file.Genres {
			if _, err := genres.Create(ctx, g); err != nil {
				return fmt.Errorf("genre #%d (%s): %w", i+1, g.Slug, err)
			}
			res.Genres++
		}
		for i, t := range file.Titles {
			if _, err := titles.Create(ctx, t); err != nil {
				return fmt.Errorf("title #%d (%s): %w", i+1, t.Name, err)
			}
			res.Titles++
		}
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}
	return res, nil
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [file.json]",
		Short: "Import categories, genres and titles from a JSON file",
		Long: `Import catalogue data in one transaction. The file has the shape
{"categories": [{"name", "slug"}], "genres": [{"name", "slug"}],
 "titles": [{"name", "year", "description", "category", "genre": [slugs]}]}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := Seed(cmd.Context(), db, f)
			if err != nil {
				return err
			}

			success(cmd, "Imported %d categories, %d genres, %d titles",
				res.Categories, res.Genres, res.Titles)
			return nil
		},
	}
}
