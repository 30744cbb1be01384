package models

// explicit join model so the genre_title table carries its own id and a
// unique (title, genre) pair; registered with SetupJoinTable in database.Migrate.
// The belongs-to fields give the table its cascading foreign keys.
type TitleGenre struct {
	ID      int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID int64  `json:"title_id" gorm:"not null;uniqueIndex:idx_genre_title_pair"`
	GenreID int64  `json:"genre_id" gorm:"not null;uniqueIndex:idx_genre_title_pair;index"`
	Title   *Title `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Genre   *Genre `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

func (TitleGenre) TableName() string {
	return "genre_title"
}
