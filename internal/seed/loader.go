// Package seed imports the CSV fixture set (category.csv, genre.csv,
// users.csv, titles.csv, genre_title.csv, review.csv, comments.csv) into
// the database, replacing existing rows.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"yamdb/internal/microservices/http-api/models"
)

// Report counts imported rows per file.
type Report map[string]int

type loader struct {
	tx      *gorm.DB
	dir     string
	logger  *slog.Logger
	userIDs map[string]string // csv id -> uuid
	report  Report
}

// Load imports every fixture file from dir in one transaction. Files are
// read in dependency order; a missing file is skipped.
func Load(ctx context.Context, db *gorm.DB, dir string, logger *slog.Logger) (Report, error) {
	report := Report{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l := &loader{tx: tx, dir: dir, logger: logger, userIDs: map[string]string{}, report: report}
		if err := l.clear(); err != nil {
			return err
		}
		steps := []struct {
			file string
			fn   func([]string) error
		}{
			{"category.csv", l.category},
			{"genre.csv", l.genre},
			{"users.csv", l.user},
			{"titles.csv", l.title},
			{"genre_title.csv", l.genreTitle},
			{"review.csv", l.review},
			{"comments.csv", l.comment},
		}
		for _, step := range steps {
			if err := l.readFile(step.file, step.fn); err != nil {
				return err
			}
		}
		return l.resetSequences()
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// clear empties the tables children first.
func (l *loader) clear() error {
	for _, model := range []any{
		&models.Comment{}, &models.Review{}, &models.TitleGenre{}, &models.Title{},
		&models.Genre{}, &models.Category{}, &models.User{},
	} {
		if err := l.tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

func (l *loader) readFile(name string, fn func([]string) error) error {
	f, err := os.Open(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("seed_file_missing", "file", name)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if _, err := r.Read(); err != nil { // header
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%s: read header: %w", name, err)
	}

	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("%s:%d: %w", name, line, err)
		}
		l.report[name]++
	}
	l.logger.Info("seed_file_loaded", "file", name, "rows", l.report[name])
	return nil
}

func need(row []string, n int) error {
	if len(row) < n {
		return fmt.Errorf("expected %d columns, got %d", n, len(row))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t, nil
}

// id,name,slug
func (l *loader) category(row []string) error {
	if err := need(row, 3); err != nil {
		return err
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	return l.tx.Create(&models.Category{ID: id, Name: row[1], Slug: row[2]}).Error
}

// id,name,slug
func (l *loader) genre(row []string) error {
	if err := need(row, 3); err != nil {
		return err
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	return l.tx.Create(&models.Genre{ID: id, Name: row[1], Slug: row[2]}).Error
}

// id,username,email,role,bio,first_name,last_name
func (l *loader) user(row []string) error {
	if err := need(row, 7); err != nil {
		return err
	}
	role := models.Role(row[3])
	if !role.Valid() {
		return fmt.Errorf("invalid role %q", row[3])
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Username:  row[1],
		Email:     row[2],
		Role:      role,
		Bio:       row[4],
		FirstName: row[5],
		LastName:  row[6],
	}
	if err := l.tx.Create(u).Error; err != nil {
		return err
	}
	l.userIDs[row[0]] = u.ID
	return nil
}

func (l *loader) author(csvID string) (string, error) {
	id, ok := l.userIDs[csvID]
	if !ok {
		return "", fmt.Errorf("unknown author %q", csvID)
	}
	return id, nil
}

// id,name,year,category
func (l *loader) title(row []string) error {
	if err := need(row, 4); err != nil {
		return err
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	year, err := strconv.Atoi(row[2])
	if err != nil {
		return fmt.Errorf("invalid year %q", row[2])
	}
	t := &models.Title{ID: id, Name: row[1], Year: year}
	if row[3] != "" {
		categoryID, err := parseID(row[3])
		if err != nil {
			return err
		}
		t.CategoryID = &categoryID
	}
	return l.tx.Omit("Genres", "Category").Create(t).Error
}

// id,title_id,genre_id
func (l *loader) genreTitle(row []string) error {
	if err := need(row, 3); err != nil {
		return err
	}
	ids := make([]int64, 3)
	for i := range ids {
		id, err := parseID(row[i])
		if err != nil {
			return err
		}
		ids[i] = id
	}
	return l.tx.Create(&models.TitleGenre{ID: ids[0], TitleID: ids[1], GenreID: ids[2]}).Error
}

// id,title_id,text,author,score,pub_date
func (l *loader) review(row []string) error {
	if err := need(row, 6); err != nil {
		return err
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	titleID, err := parseID(row[1])
	if err != nil {
		return err
	}
	authorID, err := l.author(row[3])
	if err != nil {
		return err
	}
	score, err := strconv.Atoi(row[4])
	if err != nil || score < models.MinScore || score > models.MaxScore {
		return fmt.Errorf("invalid score %q", row[4])
	}
	pubDate, err := parseTime(row[5])
	if err != nil {
		return err
	}
	return l.tx.Omit("Author", "Title").Create(&models.Review{
		ID: id, TitleID: titleID, AuthorID: authorID, Text: row[2], Score: score, PubDate: pubDate,
	}).Error
}

// id,review_id,text,author,pub_date
func (l *loader) comment(row []string) error {
	if err := need(row, 5); err != nil {
		return err
	}
	id, err := parseID(row[0])
	if err != nil {
		return err
	}
	reviewID, err := parseID(row[1])
	if err != nil {
		return err
	}
	authorID, err := l.author(row[3])
	if err != nil {
		return err
	}
	pubDate, err := parseTime(row[4])
	if err != nil {
		return err
	}
	return l.tx.Omit("Author", "Review").Create(&models.Comment{
		ID: id, ReviewID: reviewID, AuthorID: authorID, Text: row[2], PubDate: pubDate,
	}).Error
}

// resetSequences moves Postgres id sequences past the imported ids.
func (l *loader) resetSequences() error {
	if l.tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"categories", "genres", "titles", "genre_title", "reviews", "comments"} {
		stmt := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
			table)
		if err := l.tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}
