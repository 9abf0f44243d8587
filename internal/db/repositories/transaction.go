package repositories

import (
	"context"

	gormlib "gorm.io/gorm"
)

// InTransaction runs fn with repositories bound to one transaction.
// Everything fn writes is committed together or not at all.
func InTransaction(ctx context.Context, db *gormlib.DB, fn func(readings *ReadingRepo, bookmarks *BookmarkRepo) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gormlib.DB) error {
		return fn(NewReadingRepo(tx), NewBookmarkRepo(tx))
	})
}
