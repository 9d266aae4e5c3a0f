package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ConsumeRequests charges add requests to today's (UTC) usage of source when the total stays
// within dailyMax. It reports whether the charge was accepted and the resulting usage.
// dailyMax <= 0 means unlimited.
func (s *Store) ConsumeRequests(ctx context.Context, source string, add, dailyMax int64) (bool, int64, error) {
	now := s.now()
	day := now.Format("2006-01-02")
	if dailyMax > 0 && add > dailyMax {
		used, err := s.requestsUsed(ctx, source, day)
		return false, used, err
	}
	limit := dailyMax
	if limit <= 0 {
		limit = 1<<62 - 1
	}

	var used int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO source_usage (id, source, day, requests_used, last_updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (source, day) DO UPDATE SET
			requests_used = source_usage.requests_used + EXCLUDED.requests_used,
			last_updated_at = EXCLUDED.last_updated_at
		WHERE source_usage.requests_used + EXCLUDED.requests_used <= $6
		RETURNING requests_used
	`), s.newID(), source, day, add, formatTime(now), limit).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		used, err = s.requestsUsed(ctx, source, day)
		return false, used, err
	}
	if err != nil {
		return false, 0, fmt.Errorf("consume requests source=%s: %w", source, err)
	}
	return true, used, nil
}

func (s *Store) requestsUsed(ctx context.Context, source, day string) (int64, error) {
	var used int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT requests_used FROM source_usage WHERE source = $1 AND day = $2
	`), source, day).Scan(&used)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read usage source=%s: %w", source, err)
	}
	return used, nil
}
