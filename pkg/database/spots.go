package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"builder-maps/internal/models"
	errs "builder-maps/pkg/errors"
)

const spotColumns = `id, name, city_id, category, lng, lat, address, description, website,
        social_links, status, submitted_by, upvotes, screening,
        reviewed_by, reviewed_at, review_note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanSpot scans a complete spot row into a Spot struct
func scanSpot(row rowScanner) (*models.Spot, error) {
	var (
		s         models.Spot
		links     sql.NullString
		screening sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.CityID, &s.Category, &s.Coordinates.Lng, &s.Coordinates.Lat,
		&s.Address, &s.Description, &s.Website,
		&links, &s.Status, &s.SubmittedBy, &s.Upvotes, &screening,
		&s.ReviewedBy, &s.ReviewedAt, &s.ReviewNote, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if links.Valid && links.String != "" {
		if err := json.Unmarshal([]byte(links.String), &s.SocialLinks); err != nil {
			return nil, fmt.Errorf("decode social_links for spot %d: %w", s.ID, err)
		}
	}
	if screening.Valid && screening.String != "" {
		var sr models.ScreeningResult
		if err := json.Unmarshal([]byte(screening.String), &sr); err != nil {
			return nil, fmt.Errorf("decode screening for spot %d: %w", s.ID, err)
		}
		s.Screening = &sr
	}
	return &s, nil
}

// ListSpotsByCityCtx returns the spots of one city, oldest first.
func (s *store) ListSpotsByCityCtx(ctx context.Context, cityID string, statuses []models.SpotStatus) ([]models.Spot, error) {
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()

	query := `SELECT ` + spotColumns + ` FROM spots WHERE city_id = ?`
	args := []any{cityID}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, st := range statuses {
			args = append(args, string(st))
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewDB("database.ListSpotsByCityCtx", "failed to query spots", err)
	}
	defer rows.Close()

	spots := make([]models.Spot, 0)
	for rows.Next() {
		sp, err := scanSpot(rows)
		if err != nil {
			return nil, errs.NewDB("database.ListSpotsByCityCtx", "failed to scan spot row", err)
		}
		spots = append(spots, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("database.ListSpotsByCityCtx", "row iteration error", err)
	}
	return spots, nil
}

// GetSpotByIDCtx loads one spot or returns a NotFoundError.
func (s *store) GetSpotByIDCtx(ctx context.Context, id int64) (*models.Spot, error) {
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()

	row := s.q.QueryRowContext(ctx, `SELECT `+spotColumns+` FROM spots WHERE id = ?`, id)
	sp, err := scanSpot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NewNotFound("database.GetSpotByIDCtx", "spot", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errs.NewDB("database.GetSpotByIDCtx", "failed to load spot", err)
	}
	return sp, nil
}

// CreateSpotCtx inserts spot and fills in its ID and timestamps.
func (s *store) CreateSpotCtx(ctx context.Context, spot *models.Spot) error {
	ctx, cancel := s.withWriteTimeout(ctx)
	defer cancel()

	links, err := nullJSON(spot.SocialLinks, len(spot.SocialLinks) > 0)
	if err != nil {
		return errs.NewDB("database.CreateSpotCtx", "failed to encode social links", err)
	}
	screening, err := nullJSON(spot.Screening, spot.Screening != nil)
	if err != nil {
		return errs.NewDB("database.CreateSpotCtx", "failed to encode screening", err)
	}
	if spot.Status == "" {
		spot.Status = models.StatusPending
	}
	now := time.Now().UTC()

	res, err := s.q.ExecContext(ctx, `INSERT INTO spots
        (name, city_id, category, lng, lat, address, description, website,
         social_links, status, submitted_by, upvotes, screening, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		spot.Name, spot.CityID, string(spot.Category), spot.Coordinates.Lng, spot.Coordinates.Lat,
		spot.Address, spot.Description, spot.Website,
		links, string(spot.Status), spot.SubmittedBy, spot.Upvotes, screening, now, now,
	)
	if err != nil {
		return errs.NewDB("database.CreateSpotCtx", "failed to insert spot", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errs.NewDB("database.CreateSpotCtx", "failed to get last insert ID", err)
	}

	spot.ID = id
	spot.CreatedAt = now
	spot.UpdatedAt = now
	return nil
}

// UpdateSpotStatusCtx records a moderation decision. Only pending spots
// transition; a spot that is already decided yields a BizError.
func (s *store) UpdateSpotStatusCtx(ctx context.Context, id int64, status models.SpotStatus, adminID int, note *string) error {
	ctx, cancel := s.withWriteTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx, `UPDATE spots
        SET status = ?, reviewed_by = ?, reviewed_at = ?, review_note = ?, updated_at = ?
        WHERE id = ? AND status = ?`,
		string(status), adminID, now, note, now, id, string(models.StatusPending),
	)
	if err != nil {
		return errs.NewDB("database.UpdateSpotStatusCtx", "failed to update spot status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errs.NewDB("database.UpdateSpotStatusCtx", "failed to read affected rows", err)
	}
	if n == 0 {
		return s.statusConflict(ctx, id)
	}
	return nil
}

// statusConflict explains a status update that matched no row. The locking
// read sees the latest committed status rather than the transaction snapshot.
func (s *store) statusConflict(ctx context.Context, id int64) error {
	var current string
	err := s.q.QueryRowContext(ctx, `SELECT status FROM spots WHERE id = ? FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFound("database.UpdateSpotStatusCtx", "spot", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return errs.NewDB("database.UpdateSpotStatusCtx", "failed to read spot status", err)
	}
	return errs.NewBiz("database.UpdateSpotStatusCtx", fmt.Sprintf("spot is already %s", current), nil)
}

// GetCityStatsCtx counts spots per status for a city.
func (s *store) GetCityStatsCtx(ctx context.Context, cityID string) (*models.CityStats, error) {
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()

	rows, err := s.q.QueryContext(ctx, `SELECT status, COUNT(*) FROM spots WHERE city_id = ? GROUP BY status`, cityID)
	if err != nil {
		return nil, errs.NewDB("database.GetCityStatsCtx", "failed to query stats", err)
	}
	defer rows.Close()

	stats := &models.CityStats{CityID: cityID}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, errs.NewDB("database.GetCityStatsCtx", "failed to scan stats row", err)
		}
		switch models.SpotStatus(status) {
		case models.StatusPending:
			stats.Pending = count
		case models.StatusApproved:
			stats.Approved = count
		case models.StatusRejected:
			stats.Rejected = count
		}
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewDB("database.GetCityStatsCtx", "row iteration error", err)
	}
	return stats, nil
}

// nullJSON encodes v as a JSON string, or NULL when present is false.
func nullJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
