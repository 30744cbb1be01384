package repository

import (
	"errors"
	"math"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrNotFound is returned for missing rows. It is gorm.ErrRecordNotFound,
// so lookups that return gorm's error unwrapped match it too.
var ErrNotFound = gorm.ErrRecordNotFound

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// IsDuplicateKey reports whether err comes from a unique constraint.
// gorm translates it when TranslateError is on; raw pgx errors are checked
// too for statements that bypass the translator (Exec with raw SQL).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// offset saturates at math.MaxInt, which yields an empty page.
func (p Page) offset() int {
	if p.Number < 1 || p.Size <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

func (p Page) apply(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Limit(p.Size).Offset(p.offset())
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereContains filters column by a case-insensitive substring match. LIKE
// metacharacters in term match literally.
func whereContains(db *gorm.DB, column, term string) *gorm.DB {
	return db.Where("LOWER("+column+") LIKE LOWER(?) ESCAPE '\\'", "%"+likeEscaper.Replace(term)+"%")
}
