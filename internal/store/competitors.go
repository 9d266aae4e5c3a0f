package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const competitorColumns = `id, user_id, document, last_fetched_at, created_at`

func identifierColumn(p models.Platform) (string, error) {
	switch p {
	case models.PlatformYouTube:
		return "youtube_channel_id", nil
	case models.PlatformTwitter:
		return "twitter_handle", nil
	case models.PlatformBlog:
		return "blog_rss_url", nil
	}
	return "", fmt.Errorf("platform %q has no competitor identifier", p)
}

// CreateCompetitor inserts c. A second competitor with the same identifier for the same user
// yields ErrDuplicate and leaves the first one untouched.
func (s *Store) CreateCompetitor(ctx context.Context, c *models.Competitor) error {
	if c.ID == "" {
		c.ID = s.newID()
	}
	c.CreatedAt = s.now()
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode competitor: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO competitors (id, user_id, platform, youtube_channel_id, twitter_handle, blog_rss_url, document, last_fetched_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`), c.ID, c.UserID, string(c.Platform),
		nullableString(c.YouTubeChannelID), nullableString(c.TwitterHandle), nullableString(c.BlogRSSURL),
		string(doc), nullableTime(c.LastFetchedAt), formatTime(c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert competitor: %w", err)
	}
	return nil
}

// FindCompetitorByIdentifier looks up the user's competitor tracked under identifier on platform.
func (s *Store) FindCompetitorByIdentifier(ctx context.Context, userID string, platform models.Platform, identifier string) (models.Competitor, error) {
	col, err := identifierColumn(platform)
	if err != nil {
		return models.Competitor{}, err
	}
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+competitorColumns+` FROM competitors WHERE user_id = $1 AND `+col+` = $2
	`), userID, identifier)
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Competitor{}, ErrNotFound
	}
	return c, err
}

// ListCompetitors returns the user's competitors, newest first.
func (s *Store) ListCompetitors(ctx context.Context, userID string) ([]models.Competitor, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+competitorColumns+` FROM competitors
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list competitors: %w", err)
	}
	return collectCompetitors(rows)
}

func (s *Store) GetCompetitor(ctx context.Context, userID, id string) (models.Competitor, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+competitorColumns+` FROM competitors WHERE id = $1 AND user_id = $2
	`), id, userID)
	c, err := scanCompetitor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Competitor{}, ErrNotFound
	}
	return c, err
}

// UpdateCompetitor overwrites name, posts, analysis and fetch time. The identifier never changes.
func (s *Store) UpdateCompetitor(ctx context.Context, c *models.Competitor) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode competitor: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE competitors SET document = $1, last_fetched_at = $2
		WHERE id = $3 AND user_id = $4
	`), string(doc), nullableTime(c.LastFetchedAt), c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update competitor: %w", err)
	}
	return expectOne(res)
}

func (s *Store) DeleteCompetitor(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM competitors WHERE id = $1 AND user_id = $2`), id, userID)
	if err != nil {
		return fmt.Errorf("delete competitor: %w", err)
	}
	return expectOne(res)
}

// ListStaleCompetitors returns up to limit competitors of any user that were never fetched
// or last fetched before cutoff. Competitors never attempted by the refresher come first, then
// the least recently attempted, so repeated failures rotate to the back of the queue.
func (s *Store) ListStaleCompetitors(ctx context.Context, cutoff time.Time, limit int) ([]models.Competitor, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+competitorColumns+` FROM competitors
		WHERE last_fetched_at IS NULL OR last_fetched_at < $1
		ORDER BY COALESCE(last_attempted_at, '') ASC, COALESCE(last_fetched_at, '') ASC, created_at ASC
		LIMIT $2
	`), formatTime(cutoff), limit)
	if err != nil {
		return nil, fmt.Errorf("list stale competitors: %w", err)
	}
	return collectCompetitors(rows)
}

// MarkCompetitorAttempted records that the refresher tried competitor id at the given time.
func (s *Store) MarkCompetitorAttempted(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE competitors SET last_attempted_at = $1 WHERE id = $2`), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("mark competitor attempted: %w", err)
	}
	return expectOne(res)
}

func collectCompetitors(rows *sql.Rows) ([]models.Competitor, error) {
	defer rows.Close()
	out := []models.Competitor{}
	for rows.Next() {
		c, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCompetitor(row scanner) (models.Competitor, error) {
	var (
		c           models.Competitor
		id, userID  string
		doc         string
		lastFetched sql.NullString
		createdAt   string
	)
	if err := row.Scan(&id, &userID, &doc, &lastFetched, &createdAt); err != nil {
		return models.Competitor{}, err
	}
	if err := json.Unmarshal([]byte(doc), &c); err != nil {
		return models.Competitor{}, fmt.Errorf("decode competitor %s: %w", id, err)
	}
	c.ID, c.UserID = id, userID
	var err error
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Competitor{}, err
	}
	c.LastFetchedAt = nil
	if lastFetched.Valid {
		t, err := parseTime(lastFetched.String)
		if err != nil {
			return models.Competitor{}, err
		}
		c.LastFetchedAt = &t
	}
	if c.RecentPosts == nil {
		c.RecentPosts = []models.CompetitorPost{}
	}
	if c.TopicAnalysis.Themes == nil {
		c.TopicAnalysis.Themes = []string{}
	}
	return c, nil
}
