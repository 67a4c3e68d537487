package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/mr1hm/go-surf-report/internal/models"
)

func (s *SQLiteDB) PublishLocations(ctx context.Context, locs []models.Location, publishedAt time.Time) (RegistryInfo, error) {
	info := RegistryInfo{
		Version:     RegistryVersion(locs),
		PublishedAt: publishedAt.UTC(),
		Count:       len(locs),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RegistryInfo{}, fmt.Errorf("error starting publish: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM locations`); err != nil {
		return RegistryInfo{}, fmt.Errorf("error clearing locations: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO locations (position, id, name, latitude, longitude, country, facing_deg, swell_station_id, wind_station_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return RegistryInfo{}, fmt.Errorf("error preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, l := range locs {
		var facing sql.NullFloat64
		if l.Facing.Valid {
			facing = sql.NullFloat64{Float64: l.Facing.Degrees, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i, l.ID, l.Name, l.Latitude, l.Longitude, l.Country,
			facing, l.SwellStationID, l.WindStationID); err != nil {
			return RegistryInfo{}, fmt.Errorf("error inserting location %s: %w", l.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO registry_meta (id, version, published_at, location_count) VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version,
			published_at = excluded.published_at,
			location_count = excluded.location_count`,
		info.Version, info.PublishedAt, info.Count); err != nil {
		return RegistryInfo{}, fmt.Errorf("error updating registry meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return RegistryInfo{}, fmt.Errorf("error committing publish: %w", err)
	}
	return info, nil
}

func (s *SQLiteDB) ListLocations(ctx context.Context) ([]models.Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, latitude, longitude, country, facing_deg, swell_station_id, wind_station_id
		FROM locations ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("error querying locations: %w", err)
	}
	defer rows.Close()

	var locs []models.Location
	for rows.Next() {
		var (
			l      models.Location
			facing sql.NullFloat64
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.Country,
			&facing, &l.SwellStationID, &l.WindStationID); err != nil {
			return nil, fmt.Errorf("error scanning location: %w", err)
		}
		if facing.Valid {
			l.Facing = models.FacingDegrees(facing.Float64)
		}
		locs = append(locs, l)
	}
	return locs, rows.Err()
}

// RegistryInfo returns the zero RegistryInfo when nothing was published yet.
func (s *SQLiteDB) RegistryInfo(ctx context.Context) (RegistryInfo, error) {
	var info RegistryInfo
	err := s.db.QueryRowContext(ctx, `SELECT version, published_at, location_count FROM registry_meta WHERE id = 1`).
		Scan(&info.Version, &info.PublishedAt, &info.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return RegistryInfo{}, nil
	}
	if err != nil {
		return RegistryInfo{}, fmt.Errorf("error reading registry meta: %w", err)
	}
	return info, nil
}

// RegistryVersion is a content hash of the registry, stable for identical
// location lists.
func RegistryVersion(locs []models.Location) string {
	h := xxh3.New()
	buf := make([]byte, 0, 256)
	for _, l := range locs {
		buf = buf[:0]
		buf = append(buf, l.ID...)
		buf = append(buf, 0)
		buf = append(buf, l.Name...)
		buf = append(buf, 0)
		buf = strconv.AppendFloat(buf, l.Latitude, 'g', -1, 64)
		buf = append(buf, 0)
		buf = strconv.AppendFloat(buf, l.Longitude, 'g', -1, 64)
		buf = append(buf, 0)
		buf = append(buf, l.Country...)
		buf = append(buf, 0)
		if l.Facing.Valid {
			buf = strconv.AppendFloat(buf, l.Facing.Degrees, 'g', -1, 64)
		}
		buf = append(buf, 0)
		buf = append(buf, l.SwellStationID...)
		buf = append(buf, 0)
		buf = append(buf, l.WindStationID...)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}
	return strconv.FormatUint(h.Sum64(), 16)
}
