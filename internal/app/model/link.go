package model

import "time"

// Link describes the core shortlink entity stored in Postgres. The slug is
// the primary key, so concurrent creations of the same slug are arbitrated
// by the database, never by in-process state. Everything except Clicks is
// immutable once created.
type Link struct {
	Slug        string    `db:"slug" gorm:"primaryKey;size:8"`
	OriginalURL string    `db:"original_url" gorm:"type:text;not null"`
	CleanURL    string    `db:"clean_url" gorm:"type:text;not null"`
	Title       string    `db:"title" gorm:"size:255"`
	Description string    `db:"description" gorm:"type:text"`
	Clicks      int64     `db:"clicks" gorm:"not null;default:0"`
	CreatedAt   time.Time `db:"created_at" gorm:"autoCreateTime"`
}
