package repository

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// sqliteDSN adds connection options unless the caller already set some.
// Immediate transactions take the write lock up front so read-then-write
// transactions cannot fail to upgrade.
func sqliteDSN(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS images (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL CHECK (length(url) <= 255),
		duration INTEGER NOT NULL CHECK (duration BETWEEN 1 AND 300),
		added_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_images_added_at ON images(added_at);

	-- images_ids holds a JSON array of image ids; there is no foreign key
	CREATE TABLE IF NOT EXISTS slideshows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		images_ids TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS proof_of_play_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slideshow_id INTEGER NOT NULL,
		image_id INTEGER NOT NULL,
		user_id INTEGER,
		displayed_at DATETIME,
		replaced_at DATETIME,
		actual_duration INTEGER,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_proof_of_play_slideshow ON proof_of_play_events(slideshow_id);
	`

	_, err := db.Exec(schema)
	return err
}
