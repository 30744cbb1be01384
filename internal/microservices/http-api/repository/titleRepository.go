package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TitleFilter narrows title listings; zero values are ignored.
type TitleFilter struct {
	Name     string // case-insensitive substring
	Year     int
	Category string // category slug
	Genre    string // genre slug
}

type TitleRepo struct {
	db *gorm.DB
}

func NewTitleRepo(db *gorm.DB) *TitleRepo {
	return &TitleRepo{db: db}
}

func (r *TitleRepo) filtered(ctx context.Context, f TitleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Title{})
	if f.Name != "" {
		q = whereContains(q, "titles.name", f.Name)
	}
	if f.Year != 0 {
		q = q.Where("titles.year = ?", f.Year)
	}
	if f.Category != "" {
		q = q.Where("titles.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", f.Category))
	}
	if f.Genre != "" {
		q = q.Where("titles.id IN (?)",
			r.db.Table("genre_title").
				Select("genre_title.title_id").
				Joins("JOIN genres ON genres.id = genre_title.genre_id").
				Where("genres.slug = ?", f.Genre))
	}
	return q
}

func (r *TitleRepo) GetAll(ctx context.Context, f TitleFilter, page Page) ([]models.Title, int64, error) {
	var list []models.Title
	var total int64

	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	if err := page.apply(r.filtered(ctx, f)).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		Order("titles.name asc").
		Order("titles.id asc").
		Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get titles: %w", err)
	}
	return list, total, nil
}

func (r *TitleRepo) GetByID(ctx context.Context, id int64) (*models.Title, error) {
	var t models.Title
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name asc") }).
		First(&t, id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// Exists is a cheap parent check for nested review/comment routes.
func (r *TitleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check title: %w", err)
	}
	return count > 0, nil
}

// Create inserts the title and its genre_title rows in one transaction.
// t.Genres must hold persisted genres.
func (r *TitleRepo) Create(ctx context.Context, t *models.Title) error {
	genres := t.Genres
	t.Genres = nil
	t.Category = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(t).Error; err != nil {
			return err
		}
		if len(genres) == 0 {
			return nil
		}
		return tx.Model(t).Omit("Genres.*").Association("Genres").Append(genres)
	})
	if err != nil {
		return fmt.Errorf("create title: %w", err)
	}
	t.Genres = genres
	return nil
}

// Update writes the scalar columns and, when replaceGenres is set, swaps the
// whole genre set.
func (r *TitleRepo) Update(ctx context.Context, t *models.Title, replaceGenres bool) error {
	genres := t.Genres

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Title{ID: t.ID}).
			Select("name", "year", "description", "category_id").
			Updates(map[string]any{
				"name":        t.Name,
				"year":        t.Year,
				"description": t.Description,
				"category_id": t.CategoryID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		if !replaceGenres {
			return nil
		}
		if len(genres) == 0 {
			return tx.Model(&models.Title{ID: t.ID}).Association("Genres").Clear()
		}
		return tx.Model(&models.Title{ID: t.ID}).Omit("Genres.*").Association("Genres").Replace(genres)
	})
	if err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	return nil
}

// Delete removes the title; reviews, comments and genre_title rows cascade.
func (r *TitleRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.Title{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete title: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
