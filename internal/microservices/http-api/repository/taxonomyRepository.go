package repository

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// TaxonomyRepo stores slug-keyed name lists (categories and genres share
// the same shape and queries).
type TaxonomyRepo[T models.Category | models.Genre] struct {
	db   *gorm.DB
	kind string
}

type (
	CategoryRepo = TaxonomyRepo[models.Category]
	GenreRepo    = TaxonomyRepo[models.Genre]
)

func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db, kind: "category"}
}

func NewGenreRepo(db *gorm.DB) *GenreRepo {
	return &GenreRepo{db: db, kind: "genre"}
}

// List returns entries ordered by name, optionally filtered by a name substring.
func (r *TaxonomyRepo[T]) List(ctx context.Context, search string, page Page) ([]T, int64, error) {
	var list []T
	var total int64

	q := r.db.WithContext(ctx).Model(new(T))
	if search != "" {
		q = whereContains(q, "name", search)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", r.kind, err)
	}
	if err := page.apply(q).Order("name asc").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", r.kind, err)
	}
	return list, total, nil
}

func (r *TaxonomyRepo[T]) Create(ctx context.Context, item *T) error {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.kind, err)
	}
	return nil
}

func (r *TaxonomyRepo[T]) GetBySlug(ctx context.Context, slug string) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetBySlugs returns the entries that exist among slugs; callers compare
// lengths to find unknown ones.
func (r *TaxonomyRepo[T]) GetBySlugs(ctx context.Context, slugs []string) ([]T, error) {
	var list []T
	if len(slugs) == 0 {
		return list, nil
	}
	if err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("get %s by slugs: %w", r.kind, err)
	}
	return list, nil
}

// DeleteBySlug removes the entry; FK rules null out titles.category_id or
// drop genre_title rows.
func (r *TaxonomyRepo[T]) DeleteBySlug(ctx context.Context, slug string) error {
	result := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(new(T))
	if result.Error != nil {
		return fmt.Errorf("delete %s: %w", r.kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
