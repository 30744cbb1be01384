package dto

import "yamdb/internal/microservices/http-api/models"

// CreateTitleDTO used for POST /v1/titles/; category and genres are referenced by slug
type CreateTitleDTO struct {
	Name        string   `json:"name" binding:"required,max=256"`
	Year        int      `json:"year" binding:"required,notfuture"`
	Description string   `json:"description"`
	Category    string   `json:"category" binding:"omitempty,slug"`
	Genre       []string `json:"genre" binding:"omitempty,dive,slug"`
}

// UpdateTitleDTO used for PATCH /v1/titles/{id}/ (partial updates allowed).
// An empty category string detaches the category, an empty genre list clears genres.
type UpdateTitleDTO struct {
	Name        *string  `json:"name,omitempty" binding:"omitnil,min=1,max=256"`
	Year        *int     `json:"year,omitempty" binding:"omitnil,notfuture"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"category,omitempty" binding:"omitempty,slug"`
	Genre       []string `json:"genre,omitempty" binding:"omitempty,dive,slug"`
}

// TitleResponse is the read shape with nested category/genres and the derived rating.
// Rating is null for titles without reviews.
type TitleResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Year        int               `json:"year"`
	Rating      *float64          `json:"rating"`
	Description string            `json:"description"`
	Genre       []GenreResponse   `json:"genre"`
	Category    *CategoryResponse `json:"category"`
}

// FromModelToTitleResponse converts a Title with preloaded associations
func FromModelToTitleResponse(t models.Title, rating *float64) TitleResponse {
	resp := TitleResponse{
		ID:          t.ID,
		Name:        t.Name,
		Year:        t.Year,
		Rating:      rating,
		Description: t.Description,
		Genre:       make([]GenreResponse, 0, len(t.Genres)),
	}
	for _, g := range t.Genres {
		resp.Genre = append(resp.Genre, GenreFromModel(g))
	}
	if t.Category != nil {
		c := CategoryFromModel(*t.Category)
		resp.Category = &c
	}
	return resp
}
