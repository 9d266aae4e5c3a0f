package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PortNumber53/content-strategy-engine/internal/models"
)

const strategyColumns = `id, user_id, document, created_at, updated_at`

// CreateStrategy assigns an id and timestamps and inserts st.
func (s *Store) CreateStrategy(ctx context.Context, st *models.Strategy) error {
	now := s.now()
	if st.ID == "" {
		st.ID = s.newID()
	}
	st.CreatedAt, st.UpdatedAt = now, now
	doc, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode strategy: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO strategies (id, user_id, topic, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
	`), st.ID, st.UserID, st.Topic, string(doc), formatTime(now))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// ListStrategies returns the user's strategies, newest first.
func (s *Store) ListStrategies(ctx context.Context, userID string) ([]models.Strategy, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT `+strategyColumns+` FROM strategies
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	out := []models.Strategy{}
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// GetStrategy returns ErrNotFound when id does not exist or belongs to someone else.
func (s *Store) GetStrategy(ctx context.Context, userID, id string) (models.Strategy, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+strategyColumns+` FROM strategies WHERE id = $1 AND user_id = $2
	`), id, userID)
	st, err := scanStrategy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Strategy{}, ErrNotFound
	}
	return st, err
}

// UpdateStrategy overwrites the stored document (last write wins) and bumps UpdatedAt.
func (s *Store) UpdateStrategy(ctx context.Context, st *models.Strategy) error {
	prev := st.UpdatedAt
	st.UpdatedAt = s.now()
	doc, err := json.Marshal(st)
	if err != nil {
		st.UpdatedAt = prev
		return fmt.Errorf("encode strategy: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE strategies SET topic = $1, document = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5
	`), st.Topic, string(doc), formatTime(st.UpdatedAt), st.ID, st.UserID)
	if err != nil {
		st.UpdatedAt = prev
		return fmt.Errorf("update strategy: %w", err)
	}
	return expectOne(res)
}

func (s *Store) DeleteStrategy(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM strategies WHERE id = $1 AND user_id = $2`), id, userID)
	if err != nil {
		return fmt.Errorf("delete strategy: %w", err)
	}
	return expectOne(res)
}

// ListTopics returns the distinct topics of the user's strategies, used as "existing coverage" for gap analysis.
func (s *Store) ListTopics(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT topic FROM strategies WHERE user_id = $1 ORDER BY created_at DESC
	`), userID)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	seen := map[string]bool{}
	out := []string{}
	for rows.Next() {
		var topic string
		if err := rows.Scan(&topic); err != nil {
			return nil, err
		}
		topic = strings.TrimSpace(topic)
		key := strings.ToLower(topic)
		if topic == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, topic)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row scanner) (models.Strategy, error) {
	var (
		st                   models.Strategy
		id, userID, doc      string
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &userID, &doc, &createdAt, &updatedAt); err != nil {
		return models.Strategy{}, err
	}
	if err := json.Unmarshal([]byte(doc), &st); err != nil {
		return models.Strategy{}, fmt.Errorf("decode strategy %s: %w", id, err)
	}
	st.ID, st.UserID = id, userID
	var err error
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return models.Strategy{}, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return models.Strategy{}, err
	}
	if st.GeneratedPlan.Calendar == nil {
		st.GeneratedPlan.Calendar = []models.CalendarItem{}
	}
	return st, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
