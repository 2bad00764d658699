package store

import (
	"context"
	"errors"
	"fmt"

	"chat-gateway/internal/models"
	"chat-gateway/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.L().Info().Msg("connected to database")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Message Repository Implementation

func (s *PostgresStore) CreateMessage(ctx context.Context, content string, userID int) (*models.Message, error) {
	query := `
		WITH inserted AS (
			INSERT INTO messages (content, user_id, created_at)
			VALUES ($1, $2, NOW())
			RETURNING id, content, user_id, created_at
		)
		SELECT i.id, i.content, i.user_id, u.username, i.created_at
		FROM inserted i
		JOIN users u ON i.user_id = u.id`

	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, query, content, userID).Scan(
		&msg.ID, &msg.Content, &msg.UserID, &msg.Username, &msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return msg, nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, limit int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.content, m.user_id, u.username, m.created_at
		FROM messages m
		JOIN users u ON m.user_id = u.id
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PostgresStore) MessageByID(ctx context.Context, id int) (*models.Message, error) {
	query := `
		SELECT m.id, m.content, m.user_id, u.username, m.created_at
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.id = $1`

	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.Content, &msg.UserID, &msg.Username, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *PostgresStore) MessagesByUser(ctx context.Context, userID, limit int) ([]*models.Message, error) {
	query := `
		SELECT m.id, m.content, m.user_id, u.username, m.created_at
		FROM messages m
		JOIN users u ON m.user_id = u.id
		WHERE m.user_id = $1
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PostgresStore) UpdateMessage(ctx context.Context, id int, content string) (*models.Message, error) {
	query := `
		WITH updated AS (
			UPDATE messages SET content = $2 WHERE id = $1
			RETURNING id, content, user_id, created_at
		)
		SELECT u2.id, u2.content, u2.user_id, u.username, u2.created_at
		FROM updated u2
		JOIN users u ON u2.user_id = u.id`

	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, query, id, content).Scan(
		&msg.ID, &msg.Content, &msg.UserID, &msg.Username, &msg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	return msg, nil
}

func (s *PostgresStore) DeleteMessage(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMessages(rows pgx.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		if err := rows.Scan(&msg.ID, &msg.Content, &msg.UserID, &msg.Username, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// User Repository Implementation

const userColumns = `id, username, COALESCE(email, ''), COALESCE(avatar, ''), is_online, last_seen, created_at, updated_at`

func (s *PostgresStore) CreateUser(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, avatar, is_online, last_seen, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), false, NOW(), NOW(), NOW())
		RETURNING ` + userColumns

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, req.Username, req.Email, req.Avatar).Scan(
		&user.ID, &user.Username, &user.Email, &user.Avatar,
		&user.IsOnline, &user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) FindUserByID(ctx context.Context, id int) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.Email, &user.Avatar,
		&user.IsOnline, &user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Username, &user.Email, &user.Avatar,
		&user.IsOnline, &user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID, &user.Username, &user.Email, &user.Avatar,
			&user.IsOnline, &user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id int, req *models.UpdateUserRequest) (*models.User, error) {
	query := `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			avatar = COALESCE($4, avatar),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user := &models.User{}
	err := s.pool.QueryRow(ctx, query, id, req.Username, req.Email, req.Avatar).Scan(
		&user.ID, &user.Username, &user.Email, &user.Avatar,
		&user.IsOnline, &user.LastSeen, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
