package dto

import "yamdb/internal/microservices/http-api/models"

// CreateSlugDTO for POST /v1/categories/ and /v1/genres/
type CreateSlugDTO struct {
	Name string `json:"name" binding:"required,max=256"`
	Slug string `json:"slug" binding:"required,max=50,slug"`
}

// SlugResponse is the read shape of a category or a genre
type SlugResponse struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type (
	CategoryResponse = SlugResponse
	GenreResponse    = SlugResponse
)

func CategoryFromModel(c models.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Slug: c.Slug}
}

func GenreFromModel(g models.Genre) GenreResponse {
	return GenreResponse{Name: g.Name, Slug: g.Slug}
}
