package service

import (
	"context"
	"log/slog"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// TaxonomyService manages categories or genres. Both are flat (name, slug)
// lists written by admins only.
type TaxonomyService interface {
	List(ctx context.Context, search string, page repository.Page) (*dto.PaginatedResponse[dto.SlugResponse], error)
	Create(ctx context.Context, p *permission.Principal, req dto.CreateSlugDTO) (*dto.SlugResponse, error)
	Delete(ctx context.Context, p *permission.Principal, slug string) error
}

type taxonomyService[T models.Category | models.Genre] struct {
	repo     *repository.TaxonomyRepo[T]
	kind     string
	notFound error
	build    func(name, slug string) *T
	toDTO    func(T) dto.SlugResponse
	logger   *slog.Logger
}

func NewCategoryService(repo *repository.CategoryRepo, logger *slog.Logger) TaxonomyService {
	return &taxonomyService[models.Category]{
		repo:     repo,
		kind:     "category",
		notFound: ErrCategoryNotFound,
		build:    func(name, slug string) *models.Category { return &models.Category{Name: name, Slug: slug} },
		toDTO:    dto.CategoryFromModel,
		logger:   logger,
	}
}

func NewGenreService(repo *repository.GenreRepo, logger *slog.Logger) TaxonomyService {
	return &taxonomyService[models.Genre]{
		repo:     repo,
		kind:     "genre",
		notFound: ErrGenreNotFound,
		build:    func(name, slug string) *models.Genre { return &models.Genre{Name: name, Slug: slug} },
		toDTO:    dto.GenreFromModel,
		logger:   logger,
	}
}

func (s *taxonomyService[T]) List(ctx context.Context, search string, page repository.Page) (*dto.PaginatedResponse[dto.SlugResponse], error) {
	items, total, err := s.repo.List(ctx, search, page)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SlugResponse, 0, len(items))
	for _, item := range items {
		out = append(out, s.toDTO(item))
	}
	return dto.NewPaginatedResponse(out, total, page.Number, page.Size), nil
}

func (s *taxonomyService[T]) Create(ctx context.Context, p *permission.Principal, req dto.CreateSlugDTO) (*dto.SlugResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	item := s.build(req.Name, req.Slug)
	if err := s.repo.Create(ctx, item); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, NewFieldError("slug", s.kind+" with this slug already exists.")
		}
		return nil, err
	}
	s.logger.InfoContext(ctx, s.kind+"_created", "slug", req.Slug, "by", p.Username)
	resp := s.toDTO(*item)
	return &resp, nil
}

func (s *taxonomyService[T]) Delete(ctx context.Context, p *permission.Principal, slug string) error {
	if err := authorizeAdmin(p); err != nil {
		return err
	}
	if err := s.repo.DeleteBySlug(ctx, slug); err != nil {
		return notFound(err, s.notFound)
	}
	s.logger.InfoContext(ctx, s.kind+"_deleted", "slug", slug, "by", p.Username)
	return nil
}
