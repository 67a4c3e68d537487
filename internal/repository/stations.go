package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mr1hm/go-surf-report/internal/models"
)

func (s *SQLiteDB) ReplaceStations(ctx context.Context, stations []models.Station) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations`); err != nil {
		return fmt.Errorf("error clearing stations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (position, station_id, name, latitude, longitude) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range stations {
		if _, err := stmt.ExecContext(ctx, i, st.ID, st.Name, st.Latitude, st.Longitude); err != nil {
			return fmt.Errorf("error inserting station %s: %w", st.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteDB) ListStations(ctx context.Context) ([]models.Station, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT station_id, name, latitude, longitude FROM stations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("error querying stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		var st models.Station
		if err := rows.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

// AcquireJobLock takes the named lock, or returns ErrJobRunning if another
// holder took it less than staleAfter ago.
func (s *SQLiteDB) AcquireJobLock(ctx context.Context, name string, now time.Time, staleAfter time.Duration) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_locks (name, acquired_unix_nano) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET acquired_unix_nano = excluded.acquired_unix_nano
		WHERE job_locks.acquired_unix_nano < ?`,
		name, now.UnixNano(), now.Add(-staleAfter).UnixNano())
	if err != nil {
		return fmt.Errorf("error acquiring job lock %s: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error acquiring job lock %s: %w", name, err)
	}
	if n == 0 {
		return ErrJobRunning
	}
	return nil
}

func (s *SQLiteDB) ReleaseJobLock(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM job_locks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("error releasing job lock %s: %w", name, err)
	}
	return nil
}
