// Package postgres implements the record store backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/domain/user"
	"github.com/promptdeck/promptdeck/internal/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.PromptStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const userColumns = `id, username, password_hash, nickname, avatar_url, wechat_openid, points, created_at, updated_at`

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Points < 0 {
		u.Points = 0
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (id, username, password_hash, nickname, avatar_url, wechat_openid, points, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, u.ID, u.Username, u.PasswordHash, u.Nickname, u.AvatarURL, u.WeChatOpenID, u.Points, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_users
		SET username = $2, password_hash = $3, nickname = $4, avatar_url = $5, wechat_openid = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.Username, u.PasswordHash, u.Nickname, u.AvatarURL, u.WeChatOpenID, u.UpdatedAt)
	if err != nil {
		return user.User{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return s.GetUser(ctx, u.ID)
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_users WHERE id = $1`, id)
	return scanUser(row, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_users WHERE username = $1`, username)
	return scanUser(row, username)
}

func (s *Store) GetUserByWeChatOpenID(ctx context.Context, openID string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM app_users WHERE wechat_openid = $1 AND wechat_openid <> ''`, openID)
	return scanUser(row, openID)
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM app_users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL, &u.WeChatOpenID, &u.Points, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM app_users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) UpdatePoints(ctx context.Context, id string, points int64) (int64, error) {
	if points < 0 {
		return 0, fmt.Errorf("points must not be negative: %d", points)
	}
	return s.pointsQuery(ctx, `
		UPDATE app_users SET points = $2, updated_at = $3 WHERE id = $1 RETURNING points
	`, id, points)
}

func (s *Store) AddPoints(ctx context.Context, id string, delta int64) (int64, error) {
	return s.pointsQuery(ctx, `
		UPDATE app_users SET points = GREATEST(points + $2, 0), updated_at = $3 WHERE id = $1 RETURNING points
	`, id, delta)
}

func (s *Store) SubtractPoints(ctx context.Context, id string, delta int64) (int64, error) {
	// Floor at zero in the database so the balance can never go negative
	// regardless of concurrent writers.
	return s.pointsQuery(ctx, `
		UPDATE app_users SET points = GREATEST(points - $2, 0), updated_at = $3 WHERE id = $1 RETURNING points
	`, id, delta)
}

func (s *Store) pointsQuery(ctx context.Context, query, id string, amount int64) (int64, error) {
	var points int64
	err := s.db.QueryRowContext(ctx, query, id, amount, time.Now().UTC()).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return points, nil
}

func scanUser(row *sql.Row, key string) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.AvatarURL, &u.WeChatOpenID, &u.Points, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

// --- PromptStore -------------------------------------------------------------

func (s *Store) CreatePrompt(ctx context.Context, p prompt.Prompt) (prompt.Prompt, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_prompts (id, title, body, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.ID, p.Title, p.Body, pq.Array(p.Tags), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return prompt.Prompt{}, err
	}
	return p, nil
}

func (s *Store) UpdatePrompt(ctx context.Context, p prompt.Prompt) (prompt.Prompt, error) {
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE app_prompts SET title = $2, body = $3, tags = $4, updated_at = $5 WHERE id = $1
	`, p.ID, p.Title, p.Body, pq.Array(p.Tags), p.UpdatedAt)
	if err != nil {
		return prompt.Prompt{}, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return prompt.Prompt{}, fmt.Errorf("prompt %s: %w", p.ID, storage.ErrNotFound)
	}
	return s.GetPrompt(ctx, p.ID)
}

func (s *Store) GetPrompt(ctx context.Context, id string) (prompt.Prompt, error) {
	var p prompt.Prompt
	var tags pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, body, tags, created_at, updated_at FROM app_prompts WHERE id = $1
	`, id).Scan(&p.ID, &p.Title, &p.Body, &tags, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return prompt.Prompt{}, fmt.Errorf("prompt %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return prompt.Prompt{}, err
	}
	p.Tags = tags
	return p, nil
}

func (s *Store) ListPrompts(ctx context.Context) ([]prompt.Prompt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, tags, created_at, updated_at FROM app_prompts ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []prompt.Prompt
	for rows.Next() {
		var p prompt.Prompt
		var tags pq.StringArray
		if err := rows.Scan(&p.ID, &p.Title, &p.Body, &tags, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Tags = tags
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePrompt(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM app_prompts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("prompt %s: %w", id, storage.ErrNotFound)
	}
	return nil
}
