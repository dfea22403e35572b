// Package migrations contains embedded SQL migrations for the SQLite store.
package migrations
