package repository

import (
	"context"
	"math"
	"testing"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRating(t *testing.T) {
	tests := []struct {
		avg  float64
		want float64
	}{
		{7.666666, 7.7},
		{7.25, 7.3},
		{8, 8},
		{1.04, 1},
		{9.95, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundRating(tt.avg), "avg %v", tt.avg)
	}
}

func TestAverageScores(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	rated := testutil.SeedTitle(t, db, "Rated", 2001)
	unrated := testutil.SeedTitle(t, db, "Unrated", 2002)
	for i, score := range []int{7, 8, 8} {
		u := testutil.SeedUser(t, db, []string{"a", "b", "c"}[i], models.RoleUser)
		testutil.SeedReview(t, db, rated.ID, u.ID, score)
	}

	avg, err := repo.AverageScores(ctx, []int64{rated.ID, unrated.ID})
	require.NoError(t, err)
	assert.Equal(t, 7.7, avg[rated.ID])
	_, ok := avg[unrated.ID]
	assert.False(t, ok)

	empty, err := repo.AverageScores(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReviewUniquePerAuthor(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	title := testutil.SeedTitle(t, db, "Film", 2000)
	author := testutil.SeedUser(t, db, "critic", models.RoleUser)
	require.NoError(t, repo.Create(ctx, &models.Review{TitleID: title.ID, AuthorID: author.ID, Text: "one", Score: 5}))

	err := repo.Create(ctx, &models.Review{TitleID: title.ID, AuthorID: author.ID, Text: "two", Score: 6})
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	exists, err := repo.ExistsForAuthor(ctx, title.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReviewScopedToTitle(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewReviewRepository(db)
	ctx := context.Background()

	first := testutil.SeedTitle(t, db, "First", 2000)
	second := testutil.SeedTitle(t, db, "Second", 2000)
	author := testutil.SeedUser(t, db, "critic", models.RoleUser)
	review := testutil.SeedReview(t, db, first.ID, author.ID, 9)

	_, err := repo.GetByID(ctx, second.ID, review.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, second.ID, review.ID), ErrNotFound)

	got, err := repo.GetByID(ctx, first.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, "critic", got.Author.Username)
}

func TestConsumeConfirmationCode(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := testutil.SeedUser(t, db, "coder", models.RoleUser)
	hash := "hash-1"
	require.NoError(t, repo.SetConfirmationCode(ctx, user.ID, &hash))

	ok, err := repo.ConsumeConfirmationCode(ctx, user.ID, "hash-other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.ConsumeConfirmationCode(ctx, user.ID, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ConsumeConfirmationCode(ctx, user.ID, hash)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ConfirmationCode)

	assert.ErrorIs(t, repo.SetConfirmationCode(ctx, "missing", &hash), ErrNotFound)
}

func TestTaxonomySearchAndPaging(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGenreRepo(db)
	ctx := context.Background()

	for _, g := range []models.Genre{
		{Name: "Drama", Slug: "drama"},
		{Name: "Comedy", Slug: "comedy"},
		{Name: "Dramedy", Slug: "dramedy"},
	} {
		require.NoError(t, repo.Create(ctx, &g))
	}

	list, total, err := repo.List(ctx, "DRAM", Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, "drama", list[0].Slug)

	list, _, err = repo.List(ctx, "dram", Page{Number: 2, Size: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "dramedy", list[0].Slug)

	found, err := repo.GetBySlugs(ctx, []string{"drama", "unknown"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	err = repo.Create(ctx, &models.Genre{Name: "Again", Slug: "drama"})
	assert.True(t, IsDuplicateKey(err))
}

func TestSearchMatchesWildcardsLiterally(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	testutil.SeedTitle(t, db, "100% Wolf", 2020)
	testutil.SeedTitle(t, db, "1000 Years", 2001)
	testutil.SeedTitle(t, db, "A_B", 1999)
	testutil.SeedTitle(t, db, "AxB", 1998)
	testutil.SeedTitle(t, db, `Back\slash`, 1997)
	titles := NewTitleRepo(db)

	tests := []struct {
		query string
		want  []string
	}{
		{"0%", []string{"100% Wolf"}},
		{"a_b", []string{"A_B"}},
		{`k\s`, []string{`Back\slash`}},
		{"%", []string{"100% Wolf"}},
	}
	for _, tt := range tests {
		list, total, err := titles.GetAll(ctx, TitleFilter{Name: tt.query}, Page{})
		require.NoError(t, err, tt.query)
		var names []string
		for _, title := range list {
			names = append(names, title.Name)
		}
		assert.ElementsMatch(t, tt.want, names, "query %q", tt.query)
		assert.EqualValues(t, len(tt.want), total, "query %q", tt.query)
	}

	genres := NewGenreRepo(db)
	require.NoError(t, genres.Create(ctx, &models.Genre{Name: "Sci_Fi", Slug: "sci-fi"}))
	require.NoError(t, genres.Create(ctx, &models.Genre{Name: "SciXFi", Slug: "scixfi"}))
	found, total, err := genres.List(ctx, "i_f", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "sci-fi", found[0].Slug)

	testutil.SeedUser(t, db, "joe_doe", models.RoleUser)
	testutil.SeedUser(t, db, "joexdoe", models.RoleUser)
	users, total, err := NewUserRepository(db).List(ctx, "e_d", Page{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, "joe_doe", users[0].Username)
}

func TestPageOffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 0, Size: 10}.offset())
	assert.Equal(t, 20, Page{Number: 3, Size: 10}.offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt, Size: 100}.offset())
	assert.Equal(t, math.MaxInt, Page{Number: math.MaxInt/2 + 2, Size: 2}.offset())

	db := testutil.NewDB(t)
	testutil.SeedTitle(t, db, "Only Film", 2000)
	list, total, err := NewTitleRepo(db).GetAll(context.Background(), TitleFilter{}, Page{Number: math.MaxInt, Size: 100})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, list)
}
