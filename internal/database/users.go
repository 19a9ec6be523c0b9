package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pirouette/internal/models"
)

// GetOrCreateUser находит пользователя по telegram_id или создаёт его,
// обновляя имя и юзернейм при изменении.
func (db *DB) GetOrCreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	existing, err := db.GetUserByTelegramID(ctx, user.TelegramID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := time.Now()
	if existing == nil {
		query := `INSERT INTO users (telegram_id, username, first_name, last_name, phone, created_at, updated_at)
                  VALUES (?, ?, ?, ?, ?, ?, ?)`
		result, err := db.ExecContext(ctx, query,
			user.TelegramID, user.Username, user.FirstName, user.LastName,
			models.NormalizePhone(user.Phone), now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		if user.ID, err = result.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to get last insert id: %w", err)
		}
		user.CreatedAt = now
		user.UpdatedAt = now
		return user, nil
	}

	if existing.Username != user.Username || existing.FirstName != user.FirstName || existing.LastName != user.LastName {
		query := `UPDATE users SET username = ?, first_name = ?, last_name = ?, updated_at = ? WHERE telegram_id = ?`
		if _, err := db.ExecContext(ctx, query,
			user.Username, user.FirstName, user.LastName, now, user.TelegramID,
		); err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		existing.Username = user.Username
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
	}
	return existing, nil
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT id, telegram_id, username, first_name, last_name, phone, created_at, updated_at
              FROM users WHERE telegram_id = ?`
	var u models.User
	var username, firstName, lastName, phone sql.NullString
	err := db.QueryRowContext(ctx, query, telegramID).Scan(
		&u.ID, &u.TelegramID, &username, &firstName, &lastName, &phone, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Username = username.String
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Phone = phone.String
	return &u, nil
}

func (db *DB) UpdateUserPhone(ctx context.Context, telegramID int64, phone string) error {
	query := `UPDATE users SET phone = ?, updated_at = ? WHERE telegram_id = ?`
	result, err := db.ExecContext(ctx, query, models.NormalizePhone(phone), time.Now(), telegramID)
	if err != nil {
		return fmt.Errorf("failed to update user phone: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetAllUserIDs(ctx context.Context) ([]int64, error) {
	return db.queryUserIDs(ctx, `SELECT telegram_id FROM users ORDER BY id`)
}

// GetActiveUserIDs возвращает пользователей с подтверждённой записью.
func (db *DB) GetActiveUserIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM bookings
              WHERE user_id IS NOT NULL AND status = ?`
	return db.queryUserIDs(ctx, query, models.BookingStatusConfirmed)
}

// GetProgramUserIDs возвращает пользователей с подтверждённой записью
// на конкретную программу.
func (db *DB) GetProgramUserIDs(ctx context.Context, programID int64) ([]int64, error) {
	query := `SELECT DISTINCT user_id FROM bookings
              WHERE user_id IS NOT NULL AND status = ? AND program_id = ?`
	return db.queryUserIDs(ctx, query, models.BookingStatusConfirmed, programID)
}

func (db *DB) queryUserIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
