// Package search keeps a bleve full-text index of the saved favorites.
//
// The index covers meal name, ingredient names, category, area and tags.
// Follow consumes the favorites store's observable list and rebuilds the
// index on every change, so the Favorites view can filter with free text
// ("salmon", "japanese", "soy") without querying SQLite.
package search
