package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

type SQLiteDB struct {
	db *sql.DB
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// one connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		PRAGMA busy_timeout = 5000;

		CREATE TABLE IF NOT EXISTS stations (
			position INTEGER NOT NULL,
			station_id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			latitude REAL NOT NULL,
			longitude REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS locations (
			position INTEGER NOT NULL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			country TEXT NOT NULL DEFAULT '',
			facing_deg REAL,
			swell_station_id TEXT NOT NULL DEFAULT '',
			wind_station_id TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS registry_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			version TEXT NOT NULL,
			published_at DATETIME NOT NULL,
			location_count INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS job_locks (
			name TEXT PRIMARY KEY,
			acquired_unix_nano INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_locations_position ON locations(position);
		CREATE INDEX IF NOT EXISTS idx_stations_position ON stations(position);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
