package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

type TitleService interface {
	List(ctx context.Context, filter repository.TitleFilter, page repository.Page) (*dto.PaginatedResponse[dto.TitleResponse], error)
	Get(ctx context.Context, id int64) (*dto.TitleResponse, error)
	Create(ctx context.Context, p *permission.Principal, req dto.CreateTitleDTO) (*dto.TitleResponse, error)
	Update(ctx context.Context, p *permission.Principal, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error)
	Delete(ctx context.Context, p *permission.Principal, id int64) error
}

type titleService struct {
	titleRepo    *repository.TitleRepo
	categoryRepo *repository.CategoryRepo
	genreRepo    *repository.GenreRepo
	ratings      RatingService
	logger       *slog.Logger
	now          func() time.Time
}

func NewTitleService(
	titleRepo *repository.TitleRepo,
	categoryRepo *repository.CategoryRepo,
	genreRepo *repository.GenreRepo,
	ratings RatingService,
	logger *slog.Logger,
) TitleService {
	return &titleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		ratings:      ratings,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *titleService) List(ctx context.Context, filter repository.TitleFilter, page repository.Page) (*dto.PaginatedResponse[dto.TitleResponse], error) {
	titles, total, err := s.titleRepo.GetAll(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(titles))
	for i, t := range titles {
		ids[i] = t.ID
	}
	ratings, err := s.ratings.Ratings(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]dto.TitleResponse, 0, len(titles))
	for _, t := range titles {
		out = append(out, dto.FromModelToTitleResponse(t, ratings[t.ID]))
	}
	return dto.NewPaginatedResponse(out, total, page.Number, page.Size), nil
}

func (s *titleService) Get(ctx context.Context, id int64) (*dto.TitleResponse, error) {
	t, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTitleNotFound)
	}
	rating, err := s.ratings.Rating(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.FromModelToTitleResponse(*t, rating)
	return &resp, nil
}

func (s *titleService) Create(ctx context.Context, p *permission.Principal, req dto.CreateTitleDTO) (*dto.TitleResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	s.checkYear(verr, req.Year)
	category := s.resolveCategory(ctx, verr, req.Category)
	genres := s.resolveGenres(ctx, verr, req.Genre)
	if category.err != nil {
		return nil, category.err
	}
	if genres.err != nil {
		return nil, genres.err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        req.Name,
		Year:        req.Year,
		Description: req.Description,
		CategoryID:  category.id,
		Genres:      genres.list,
	}
	if err := s.titleRepo.Create(ctx, title); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "title_created", "title_id", title.ID, "by", p.Username)
	return s.Get(ctx, title.ID)
}

func (s *titleService) Update(ctx context.Context, p *permission.Principal, id int64, req dto.UpdateTitleDTO) (*dto.TitleResponse, error) {
	if err := authorizeAdmin(p); err != nil {
		return nil, err
	}
	title, err := s.titleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrTitleNotFound)
	}

	verr := &ValidationError{}
	if req.Name != nil {
		title.Name = *req.Name
	}
	if req.Year != nil {
		s.checkYear(verr, *req.Year)
		title.Year = *req.Year
	}
	if req.Description != nil {
		title.Description = *req.Description
	}
	var category resolvedCategory
	if req.Category != nil {
		category = s.resolveCategory(ctx, verr, *req.Category)
		title.CategoryID = category.id
	}
	replaceGenres := req.Genre != nil
	var genres resolvedGenres
	if replaceGenres {
		genres = s.resolveGenres(ctx, verr, req.Genre)
		title.Genres = genres.list
	}
	if category.err != nil {
		return nil, category.err
	}
	if genres.err != nil {
		return nil, genres.err
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.titleRepo.Update(ctx, title, replaceGenres); err != nil {
		return nil, notFound(err, ErrTitleNotFound)
	}
	return s.Get(ctx, id)
}

func (s *titleService) Delete(ctx context.Context, p *permission.Principal, id int64) error {
	if err := authorizeAdmin(p); err != nil {
		return err
	}
	if err := s.titleRepo.Delete(ctx, id); err != nil {
		return notFound(err, ErrTitleNotFound)
	}
	s.ratings.Invalidate(ctx, id)
	s.logger.InfoContext(ctx, "title_deleted", "title_id", id, "by", p.Username)
	return nil
}

func (s *titleService) checkYear(verr *ValidationError, year int) {
	if year > s.now().Year() {
		verr.Add("year", "Year cannot be in the future.")
	}
}

type resolvedCategory struct {
	id  *int64
	err error
}

// resolveCategory maps a slug to a category id; "" means no category.
func (s *titleService) resolveCategory(ctx context.Context, verr *ValidationError, slug string) resolvedCategory {
	if slug == "" {
		return resolvedCategory{}
	}
	c, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			verr.Add("category", fmt.Sprintf("Object with slug=%s does not exist.", slug))
			return resolvedCategory{}
		}
		return resolvedCategory{err: err}
	}
	return resolvedCategory{id: &c.ID}
}

type resolvedGenres struct {
	list []models.Genre
	err  error
}

func (s *titleService) resolveGenres(ctx context.Context, verr *ValidationError, slugs []string) resolvedGenres {
	if len(slugs) == 0 {
		return resolvedGenres{}
	}
	found, err := s.genreRepo.GetBySlugs(ctx, slugs)
	if err != nil {
		return resolvedGenres{err: err}
	}
	known := make(map[string]bool, len(found))
	for _, g := range found {
		known[g.Slug] = true
	}
	for _, slug := range slugs {
		if !known[slug] {
			verr.Add("genre", fmt.Sprintf("Object with slug=%s does not exist.", slug))
		}
	}
	return resolvedGenres{list: found}
}
