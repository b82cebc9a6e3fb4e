package store

import (
	"fmt"
	"time"
)

const catalogRefreshedKey = "catalog_refreshed_at"

func (db *DB) SetCatalogRefreshed(t time.Time) error {
	if err := db.SetState(catalogRefreshedKey, t.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("saving catalog refresh time: %w", err)
	}
	return nil
}

// CatalogRefreshed returns when the catalog cache was last refreshed. ok is
// false when it never was.
func (db *DB) CatalogRefreshed() (t time.Time, ok bool, err error) {
	value, err := db.GetState(catalogRefreshedKey)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading catalog refresh time: %w", err)
	}
	if value == "" {
		return time.Time{}, false, nil
	}
	t, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parsing catalog refresh time %q: %w", value, err)
	}
	return t, true, nil
}
