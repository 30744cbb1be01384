package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/testutil"
)

var fixtures = map[string]string{
	"category.csv": "id,name,slug\n1,Фильм,movie\n2,Книга,book\n",
	"genre.csv":    "id,name,slug\n1,Драма,drama\n2,Комедия,comedy\n",
	"users.csv": "id,username,email,role,bio,first_name,last_name\n" +
		"100,bingobongo,bingobongo@yamdb.fake,user,,,\n" +
		"101,capt_obvious,capt_obvious@yamdb.fake,admin,\"Bio, with comma\",Cap,Obvious\n",
	"titles.csv":      "id,name,year,category\n1,Побег из Шоушенка,1994,1\n2,Гамлет,1603,2\n",
	"genre_title.csv": "id,title_id,genre_id\n1,1,1\n2,2,1\n3,2,2\n",
	"review.csv": "id,title_id,text,author,score,pub_date\n" +
		"1,1,Не подлежит сомнению,100,10,2019-09-24T21:08:21.567Z\n" +
		"2,1,Так себе,101,5,2019-09-24T21:08:21.567Z\n",
	"comments.csv": "id,review_id,text,author,pub_date\n1,1,Согласен,101,2019-09-24T21:08:21.567Z\n",
}

func writeFixtures(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	return dir
}

func TestLoad(t *testing.T) {
	db := testutil.NewDB(t)
	dir := writeFixtures(t, fixtures)

	report, err := Load(context.Background(), db, dir, testutil.Logger())
	require.NoError(t, err)
	assert.Equal(t, 2, report["users.csv"])
	assert.Equal(t, 3, report["genre_title.csv"])
	assert.Equal(t, 1, report["comments.csv"])

	var hamlet models.Title
	require.NoError(t, db.Preload("Genres").Preload("Category").First(&hamlet, 2).Error)
	assert.Equal(t, "book", hamlet.Category.Slug)
	assert.Len(t, hamlet.Genres, 2)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "capt_obvious").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "Bio, with comma", admin.Bio)

	var comment models.Comment
	require.NoError(t, db.First(&comment, 1).Error)
	assert.Equal(t, admin.ID, comment.AuthorID)
	assert.Equal(t, 2019, comment.PubDate.Year())
}

func TestLoadReplacesExistingRows(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedUser(t, db, "stale", models.RoleUser)
	dir := writeFixtures(t, fixtures)

	_, err := Load(context.Background(), db, dir, testutil.Logger())
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "stale").Count(&count).Error)
	assert.Zero(t, count)
}

func TestLoadRollsBackOnBadRow(t *testing.T) {
	db := testutil.NewDB(t)
	files := map[string]string{
		"category.csv": fixtures["category.csv"],
		"users.csv":    fixtures["users.csv"],
		"titles.csv":   fixtures["titles.csv"],
		"review.csv":   "id,title_id,text,author,score,pub_date\n1,1,bad,100,11,2019-09-24T21:08:21.567Z\n",
	}
	dir := writeFixtures(t, files)

	_, err := Load(context.Background(), db, dir, testutil.Logger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "review.csv:2")

	var count int64
	require.NoError(t, db.Model(&models.Category{}).Count(&count).Error)
	assert.Zero(t, count)
}
