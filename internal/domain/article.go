package domain

import "time"

// Article is the read-model shared by scrapers, storage and the curation engine.
type Article struct {
	ID        int64
	Title     string
	URL       string
	Source    string
	CreatedAt time.Time
}

// Valid reports whether the row carries every field the curation engine needs.
// Legacy rows may lack some of them.
func (a Article) Valid() bool {
	return a.Title != "" && a.Source != "" && !a.CreatedAt.IsZero()
}

// ScrapeReport summarises one scrape pass.
type ScrapeReport struct {
	RunID    string
	Fetched  int
	New      int
	Inserted int
	Failed   []string
}

// RetentionReport summarises one cleanup pass.
type RetentionReport struct {
	ExpiredDeleted  int64
	OverflowDeleted int64
}
